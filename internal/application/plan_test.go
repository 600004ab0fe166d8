package application

import (
	"testing"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlan(t *testing.T) {
	t.Parallel()

	empty := domain.NewVideoContext("clip.mp4")
	transcribed := domain.NewVideoContext("clip.mp4")
	require.NoError(t, transcribed.Put(domain.Artifact{Kind: domain.ArtifactTranscript, Text: "hi"}))
	full := transcribed.Clone()
	for _, kind := range domain.CapabilityVision.Produces() {
		require.NoError(t, full.Put(domain.Artifact{Kind: kind}))
	}

	pdf := domain.Intent{Kind: domain.IntentGenerateDocument, Format: domain.FormatPDF}

	tests := []struct {
		name   string
		intent domain.Intent
		video  domain.VideoContext
		want   []domain.PlanStep
	}{
		{
			name:   "transcribe runs agent",
			intent: domain.Intent{Kind: domain.IntentTranscribe},
			video:  empty,
			want:   []domain.PlanStep{{Capability: domain.CapabilityTranscription}},
		},
		{
			name:   "transcribe reuses cached transcript",
			intent: domain.Intent{Kind: domain.IntentTranscribe},
			video:  transcribed,
			want:   []domain.PlanStep{{Capability: domain.CapabilityTranscription, Reused: true}},
		},
		{
			name:   "reprocess ignores cache",
			intent: domain.Intent{Kind: domain.IntentTranscribe, Reprocess: true},
			video:  transcribed,
			want:   []domain.PlanStep{{Capability: domain.CapabilityTranscription}},
		},
		{
			name:   "document on fresh video",
			intent: pdf,
			video:  empty,
			want: []domain.PlanStep{
				{Capability: domain.CapabilityTranscription},
				{Capability: domain.CapabilityVision},
				{Capability: domain.CapabilityGeneration},
			},
		},
		{
			name:   "document reuses dependencies",
			intent: pdf,
			video:  full,
			want: []domain.PlanStep{
				{Capability: domain.CapabilityTranscription, Reused: true},
				{Capability: domain.CapabilityVision, Reused: true},
				{Capability: domain.CapabilityGeneration},
			},
		},
		{
			name:   "partial vision artifacts rerun vision",
			intent: domain.Intent{Kind: domain.IntentAnalyzeVisual},
			video:  transcribed,
			want:   []domain.PlanStep{{Capability: domain.CapabilityVision}},
		},
		{name: "general query", intent: domain.Intent{Kind: domain.IntentGeneralQuery}, video: full, want: nil},
		{name: "unknown", intent: domain.Intent{Kind: domain.IntentUnknown}, video: full, want: nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, BuildPlan(tt.intent, tt.video))
		})
	}
}
