package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

type sampleRequest struct {
	Video string `json:"video"`
	Count int    `json:"count"`
}

type sampleResponse struct {
	Frames []framePayload `json:"frames"`
}

type framePayload struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	// Text is the frame's image path on the way in and its caption on the way out.
	Text string `json:"text,omitempty"`
}

// FrameSampler extracts evenly spaced frames through an external command.
type FrameSampler struct {
	command Command
	run     runFunc
}

var _ ports.FrameSampler = (*FrameSampler)(nil)

func NewFrameSampler(command Command) *FrameSampler {
	return &FrameSampler{command: command, run: runAgentCommand}
}

func (s *FrameSampler) Sample(ctx context.Context, video domain.VideoRef, count int) ([]domain.FrameDescription, error) {
	if count <= 0 {
		return nil, fmt.Errorf("frame count must be positive, got %d", count)
	}

	stdout, err := call(ctx, s.run, s.command, sampleRequest{Video: string(video), Count: count})
	if err != nil {
		return nil, fmt.Errorf("sample frames: %w", err)
	}

	var response sampleResponse
	if err := decodeModelJSON(stdout, &response); err != nil {
		return nil, fmt.Errorf("sample frames: %w", err)
	}
	if len(response.Frames) == 0 {
		return nil, errors.New("sample frames: no frames extracted")
	}

	frames := make([]domain.FrameDescription, 0, len(response.Frames))
	for _, frame := range response.Frames {
		frames = append(frames, domain.FrameDescription{Index: frame.Index, Timestamp: frame.Timestamp, Text: frame.Text})
	}

	return frames, nil
}
