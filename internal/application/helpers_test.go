package application

import (
	"context"
	"sync"
	"time"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type memoryRepository struct {
	mu       sync.Mutex
	sessions map[domain.SessionID]domain.Session
	appends  int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{sessions: map[domain.SessionID]domain.Session{}}
}

func (r *memoryRepository) Load(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return domain.NewSession(id, testNow), nil
	}
	return session.Clone(), nil
}

func (r *memoryRepository) Append(ctx context.Context, id domain.SessionID, turn domain.Turn, video domain.VideoContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		session = domain.NewSession(id, turn.CreatedAt)
	}
	session.Turns = append(session.Turns, turn.Clone())
	session.Context = video.Clone()
	session.UpdatedAt = turn.CreatedAt
	r.sessions[id] = session
	r.appends++
	return nil
}

func (r *memoryRepository) Clear(_ context.Context, id domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *memoryRepository) List(context.Context) ([]ports.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]ports.SessionSummary, 0, len(r.sessions))
	for id, session := range r.sessions {
		summaries = append(summaries, ports.SessionSummary{ID: id, Video: session.Context.Video, TurnCount: len(session.Turns), UpdatedAt: session.UpdatedAt})
	}
	return summaries, nil
}

// scriptedAgent replays results in order and repeats the last one once exhausted.
type scriptedAgent struct {
	capability domain.CapabilityKind
	results    []domain.AgentResult

	mu       sync.Mutex
	requests []domain.AgentRequest
}

func newScriptedAgent(capability domain.CapabilityKind, results ...domain.AgentResult) *scriptedAgent {
	return &scriptedAgent{capability: capability, results: results}
}

func (a *scriptedAgent) Capability() domain.CapabilityKind { return a.capability }

func (a *scriptedAgent) Execute(_ context.Context, req domain.AgentRequest) domain.AgentResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, req)
	index := len(a.requests) - 1
	if index >= len(a.results) {
		index = len(a.results) - 1
	}
	return a.results[index]
}

func (a *scriptedAgent) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *scriptedAgent) request(i int) domain.AgentRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests[i]
}

func transcriptResult(segments ...domain.TranscriptSegment) domain.AgentResult {
	return domain.Succeeded(domain.FormatTranscript, domain.Artifact{
		Kind:     domain.ArtifactTranscript,
		Text:     domain.JoinSegments(segments),
		Segments: segments,
	})
}

func visionResult(summary string, detections ...domain.Detection) domain.AgentResult {
	return domain.Succeeded(domain.FormatDetections,
		domain.Artifact{Kind: domain.ArtifactFrameDescriptions, Frames: []domain.FrameDescription{{Index: 0, Timestamp: 0, Text: summary}}},
		domain.Artifact{Kind: domain.ArtifactDetectedObjects, Detections: detections},
		domain.Artifact{Kind: domain.ArtifactSceneSummary, Text: summary},
	)
}

func documentResult(format domain.Format, title string) domain.AgentResult {
	result := domain.Succeeded(format)
	result.Document = &domain.DocumentHandle{
		ID:     "doc-" + string(format),
		Format: format,
		Title:  title,
		Path:   "/tmp/reports/summary" + format.Extension(),
		Size:   2048,
	}
	return result
}

type routerFixture struct {
	repo          *memoryRepository
	store         *ContextStore
	router        *Router
	transcription *scriptedAgent
	vision        *scriptedAgent
	generation    *scriptedAgent
}

func newRouterFixture(t interface{ Fatalf(string, ...any) }, generation ...domain.AgentResult) routerFixture {
	if len(generation) == 0 {
		generation = []domain.AgentResult{documentResult(domain.FormatPDF, "Video summary: clip")}
	}

	fixture := routerFixture{
		repo:          newMemoryRepository(),
		transcription: newScriptedAgent(domain.CapabilityTranscription, transcriptResult(domain.TranscriptSegment{Start: 0, End: 2.5, Text: "hello"}, domain.TranscriptSegment{Start: 2.5, End: 4, Text: "world"})),
		vision:        newScriptedAgent(domain.CapabilityVision, visionResult("A cat sits on a desk.", domain.Detection{Label: "cat", Confidence: 0.92, FrameIndex: 1})),
		generation:    newScriptedAgent(domain.CapabilityGeneration, generation...),
	}
	fixture.store = NewContextStore(fixture.repo, fixedClock{now: testNow})

	router, err := NewRouter(fixture.store, RuleClassifier{}, []ports.Agent{fixture.transcription, fixture.vision, fixture.generation}, fixedClock{now: testNow}, RouterOptions{MaxGenerationRetries: DefaultMaxGenerationRetries})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	fixture.router = router
	return fixture
}
