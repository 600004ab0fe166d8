package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVideoContextPutOverwritesSameKind(t *testing.T) {
	t.Parallel()

	ctx := NewVideoContext("clip.mp4")
	require.NoError(t, ctx.Put(Artifact{Kind: ArtifactTranscript, Text: "first"}))
	require.NoError(t, ctx.Put(Artifact{Kind: ArtifactTranscript, Text: "second"}))

	got, ok := ctx.Get(ArtifactTranscript)
	require.True(t, ok)
	assert.Equal(t, "second", got.Text)
	assert.Equal(t, []ArtifactKind{ArtifactTranscript}, ctx.Kinds())
}

func TestVideoContextPutRequiresKind(t *testing.T) {
	t.Parallel()

	ctx := NewVideoContext("clip.mp4")
	require.Error(t, ctx.Put(Artifact{Text: "orphan"}))
	assert.Nil(t, ctx.Artifacts)
}

func TestVideoContextCloneIsDeep(t *testing.T) {
	t.Parallel()

	original := NewVideoContext("clip.mp4")
	require.NoError(t, original.Put(Artifact{
		Kind:       ArtifactDetectedObjects,
		Detections: []Detection{{Label: "cat", Confidence: 0.9, FrameIndex: 2}},
	}))

	cloned := original.Clone()
	cloned.Artifacts[ArtifactDetectedObjects].Detections[0].Label = "dog"
	require.NoError(t, cloned.Put(Artifact{Kind: ArtifactSceneSummary, Text: "a dog"}))

	assert.Equal(t, "cat", original.Detections()[0].Label)
	assert.False(t, original.Has(ArtifactSceneSummary))
}

func TestVideoContextTranscriptTextFallsBackToSegments(t *testing.T) {
	t.Parallel()

	ctx := NewVideoContext("clip.mp4")
	require.NoError(t, ctx.Put(Artifact{
		Kind: ArtifactTranscript,
		Segments: []TranscriptSegment{
			{Start: 0, End: 2, Text: " hello "},
			{Start: 2, End: 3, Text: ""},
			{Start: 3, End: 5, Text: "world"},
		},
	}))

	assert.Equal(t, "hello world", ctx.TranscriptText())
}

func TestSessionAttachVideoResetsContext(t *testing.T) {
	t.Parallel()

	session := NewSession("s-1", time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC))
	assert.True(t, session.AttachVideo("a.mp4"))
	require.NoError(t, session.Context.Put(Artifact{Kind: ArtifactTranscript, Text: "hi"}))

	assert.False(t, session.AttachVideo("a.mp4"))
	assert.True(t, session.Context.Has(ArtifactTranscript))

	assert.True(t, session.AttachVideo("b.mp4"))
	assert.Equal(t, VideoRef("b.mp4"), session.Context.Video)
	assert.False(t, session.Context.Has(ArtifactTranscript))

	assert.False(t, session.AttachVideo("   "))
}

func TestSessionHistoryKeepsMostRecentLines(t *testing.T) {
	t.Parallel()

	session := Session{ID: "s-1"}
	for i := 1; i <= 5; i++ {
		session.Turns = append(session.Turns, Turn{
			Utterance: fmt.Sprintf("question %d", i),
			Response:  fmt.Sprintf("answer %d", i),
		})
	}

	history := session.History(3)
	require.Len(t, history, 3)
	assert.Equal(t, HistoryLine{Role: "AI", Content: "answer 4"}, history[0])
	assert.Equal(t, HistoryLine{Role: "Human", Content: "question 5"}, history[1])
	assert.Equal(t, HistoryLine{Role: "AI", Content: "answer 5"}, history[2])

	assert.Len(t, session.History(0), 10)
	assert.Nil(t, Session{}.History(8))
}

func TestParseDocumentFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    Format
		wantErr bool
	}{
		{raw: "pdf", want: FormatPDF},
		{raw: " PDF ", want: FormatPDF},
		{raw: ".pptx", want: FormatPPTX},
		{raw: "PowerPoint", want: FormatPPTX},
		{raw: "docx", wantErr: true},
		{raw: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseDocumentFormat(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntentValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, Intent{Kind: IntentTranscribe}.Validate())
	require.NoError(t, Intent{Kind: IntentGenerateDocument, Format: FormatPPTX}.Validate())
	require.ErrorIs(t, Intent{Kind: IntentGenerateDocument}.Validate(), ErrUnsupportedFormat)
	require.Error(t, Intent{Kind: IntentAnalyzeVisual, Format: FormatPDF}.Validate())
	require.Error(t, Intent{Kind: "dance"}.Validate())
	assert.Equal(t, "generate_document(pdf)", Intent{Kind: IntentGenerateDocument, Format: FormatPDF}.String())
}

func TestValidateSessionID(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSessionID("session-1"))
	for _, id := range []SessionID{"", " padded", "../escape", "a/b", ".hidden"} {
		assert.ErrorIs(t, ValidateSessionID(id), ErrInvalidSessionID, "id %q", id)
	}
}

func TestFailureKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FailureNone, FailureKindOf(nil))
	assert.Equal(t, FailureInference, FailureKindOf(errors.New("boom")))

	wrapped := fmt.Errorf("render step: %w", NewAgentError(FailureRender, CapabilityGeneration, errors.New("disk full")))
	assert.Equal(t, FailureRender, FailureKindOf(wrapped))
	assert.True(t, FailureFormat.Retryable())
	assert.False(t, FailureRender.Retryable())
}
