package domain

import (
	"strings"
	"time"
)

type SessionID string

type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeClarification    Outcome = "clarification"
	OutcomeNeedsVideo       Outcome = "needs_video"
	OutcomeValidated        Outcome = "validated"
	OutcomeExhaustedRetries Outcome = "exhausted_retries"
	OutcomeFailed           Outcome = "failed"
)

type Invocation struct {
	Capability CapabilityKind
	Attempt    int
	Success    bool
	Format     Format
	Failure    FailureKind
	Detail     string
	StartedAt  time.Time
	Duration   time.Duration
}

type PlanStep struct {
	Capability CapabilityKind
	// Reused steps were satisfied from the video context without invoking the agent.
	Reused bool
}

type Turn struct {
	ID                 string
	Utterance          string
	Intent             Intent
	Plan               []PlanStep
	Invocations        []Invocation
	Response           string
	Outcome            Outcome
	Failure            FailureKind
	Document           *DocumentHandle
	GenerationAttempts int
	CreatedAt          time.Time
}

func (t Turn) InvocationCount(capability CapabilityKind) int {
	count := 0
	for _, invocation := range t.Invocations {
		if invocation.Capability == capability {
			count++
		}
	}

	return count
}

type Session struct {
	ID        SessionID
	Context   VideoContext
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSession(id SessionID, now time.Time) Session {
	return Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

func (s Session) IsEmpty() bool {
	return len(s.Turns) == 0 && !s.Context.HasVideo()
}

// AttachVideo starts a fresh VideoContext when video differs from the current one.
func (s *Session) AttachVideo(video VideoRef) bool {
	video = VideoRef(strings.TrimSpace(string(video)))
	if video == "" || video == s.Context.Video {
		return false
	}

	s.Context = NewVideoContext(video)
	return true
}

// History renders the most recent turns as alternating Human/AI lines, keeping at most limit lines.
func (s Session) History(limit int) []HistoryLine {
	lines := make([]HistoryLine, 0, len(s.Turns)*2)
	for _, turn := range s.Turns {
		lines = append(lines,
			HistoryLine{Role: "Human", Content: turn.Utterance},
			HistoryLine{Role: "AI", Content: turn.Response},
		)
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	if len(lines) == 0 {
		return nil
	}

	return lines
}

func (s Session) Clone() Session {
	cloned := s
	cloned.Context = s.Context.Clone()
	if len(s.Turns) == 0 {
		cloned.Turns = nil
		return cloned
	}

	cloned.Turns = make([]Turn, len(s.Turns))
	for i, turn := range s.Turns {
		cloned.Turns[i] = turn.Clone()
	}

	return cloned
}

func (t Turn) Clone() Turn {
	cloned := t
	cloned.Plan = cloneSlice(t.Plan)
	cloned.Invocations = cloneSlice(t.Invocations)
	if t.Document != nil {
		doc := *t.Document
		cloned.Document = &doc
	}

	return cloned
}

func ValidateSessionID(id SessionID) error {
	trimmed := strings.TrimSpace(string(id))
	if trimmed == "" || trimmed != string(id) {
		return ErrInvalidSessionID
	}
	if strings.ContainsAny(trimmed, `/\`) || strings.HasPrefix(trimmed, ".") {
		return ErrInvalidSessionID
	}

	return nil
}
