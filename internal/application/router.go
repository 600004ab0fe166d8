package application

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const DefaultHistoryWindow = 8

type HandleRequest struct {
	SessionID domain.SessionID
	Utterance string
	// Video attaches or replaces the session's video when set.
	Video domain.VideoRef
}

type Reply struct {
	SessionID domain.SessionID
	Turn      domain.Turn
	Text      string
}

type RouterOptions struct {
	MaxGenerationRetries int
	HistoryWindow        int
	Logger               *log.Logger
}

// Router turns one utterance into agent invocations and records exactly one turn per call.
type Router struct {
	store         *ContextStore
	classifier    ports.IntentClassifier
	agents        map[domain.CapabilityKind]ports.Agent
	generation    *GenerationLoop
	clock         ports.Clock
	historyWindow int
	logger        *log.Logger
	newID         func() string
}

func NewRouter(store *ContextStore, classifier ports.IntentClassifier, agents []ports.Agent, clock ports.Clock, opts RouterOptions) (*Router, error) {
	if store == nil {
		return nil, errors.New("context store is required")
	}
	if classifier == nil {
		classifier = RuleClassifier{}
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	logger := loggerOrDiscard(opts.Logger)

	registry := make(map[domain.CapabilityKind]ports.Agent, len(agents))
	for _, agent := range agents {
		capability := agent.Capability()
		if !capability.Valid() {
			return nil, fmt.Errorf("register agent: unknown capability %q", capability)
		}
		if _, exists := registry[capability]; exists {
			return nil, fmt.Errorf("register agent: duplicate capability %q", capability)
		}
		registry[capability] = agent
	}

	historyWindow := opts.HistoryWindow
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}

	generationAgent := registry[domain.CapabilityGeneration]
	if generationAgent == nil {
		generationAgent = missingAgent{capability: domain.CapabilityGeneration}
	}

	return &Router{
		store:         store,
		classifier:    classifier,
		agents:        registry,
		generation:    NewGenerationLoop(generationAgent, opts.MaxGenerationRetries, clock, logger),
		clock:         clock,
		historyWindow: historyWindow,
		logger:        logger,
		newID:         uuid.NewString,
	}, nil
}

func (r *Router) MaxGenerationRetries() int {
	return r.generation.MaxRetries()
}

// Handle returns an error only when the request is invalid or the turn could not be persisted.
// Agent failures are reported in the reply and recorded on the turn.
func (r *Router) Handle(ctx context.Context, req HandleRequest) (Reply, error) {
	utterance := strings.TrimSpace(strings.ToValidUTF8(req.Utterance, string(utf8.RuneError)))
	if utterance == "" {
		return Reply{}, domain.ErrEmptyUtterance
	}

	var reply Reply
	err := r.store.withSession(ctx, req.SessionID, func(handle *sessionHandle) error {
		session := handle.Snapshot()
		if session.AttachVideo(req.Video) {
			r.logger.Info("video attached", "session", session.ID, "video", session.Context.Video)
		}

		turn := r.runTurn(ctx, session, utterance)
		if err := handle.Commit(ctx, turn.Turn, turn.context); err != nil {
			return err
		}

		reply = Reply{SessionID: session.ID, Turn: turn.Turn, Text: turn.Response}
		return nil
	})
	if err != nil {
		return Reply{}, fmt.Errorf("handle turn: %w", err)
	}

	return reply, nil
}

type pendingTurn struct {
	domain.Turn
	context domain.VideoContext
}

func (r *Router) runTurn(ctx context.Context, session domain.Session, utterance string) pendingTurn {
	turn := pendingTurn{
		Turn: domain.Turn{
			ID:        r.newID(),
			Utterance: utterance,
			CreatedAt: r.clock.Now(),
		},
		context: session.Context.Clone(),
	}

	intent, err := r.classifier.Classify(ctx, utterance, session.Context.Clone())
	if err == nil {
		err = intent.Validate()
	}
	if err != nil {
		r.logger.Warn("intent classification failed", "session", session.ID, "err", err)
		intent = domain.Intent{Kind: domain.IntentUnknown}
	}
	turn.Intent = intent
	r.logger.Debug("intent classified", "session", session.ID, "intent", intent.String(), "reprocess", intent.Reprocess)

	switch intent.Kind {
	case domain.IntentUnknown:
		turn.Outcome = domain.OutcomeClarification
		turn.Response = clarificationReply()
		return turn
	case domain.IntentGeneralQuery:
		turn.Outcome = domain.OutcomeAnswered
		turn.Response = generalReply(session.Context, session.Turns)
		return turn
	}

	turn.Plan = BuildPlan(intent, turn.context)
	if !turn.context.HasVideo() {
		turn.Outcome = domain.OutcomeNeedsVideo
		turn.Response = needsVideoReply(intent)
		return turn
	}

	history := session.History(r.historyWindow)
	for _, step := range turn.Plan {
		if step.Reused {
			r.logger.Debug("reusing cached artifacts", "session", session.ID, "capability", step.Capability)
			continue
		}

		if step.Capability == domain.CapabilityGeneration {
			r.runGeneration(ctx, &turn, utterance, history)
			return turn
		}

		request := domain.AgentRequest{
			Capability: step.Capability,
			Video:      turn.context.Video,
			Query:      utterance,
			Context:    turn.context.Clone(),
			History:    history,
		}
		started := r.clock.Now()
		result := r.agent(step.Capability).Execute(ctx, request)
		turn.Invocations = append(turn.Invocations, invocationFor(step.Capability, 1, result, started, r.clock.Now()))
		if !result.Success {
			r.logger.Warn("agent failed", "session", session.ID, "capability", step.Capability, "failure", result.Failure, "detail", result.Detail)
			turn.Outcome = domain.OutcomeFailed
			turn.Failure = failureOrInference(result.Failure)
			turn.Response = failureReply(step.Capability, intent.Format, result)
			return turn
		}
		if err := commitArtifacts(&turn.context, step.Capability, result, turn.CreatedAt); err != nil {
			turn.Outcome = domain.OutcomeFailed
			turn.Failure = domain.FailureInference
			turn.Response = failureReply(step.Capability, intent.Format, domain.Failed(err))
			return turn
		}
	}

	turn.Outcome = domain.OutcomeAnswered
	turn.Response = answerReply(intent, turn.Plan, turn.context)
	return turn
}

func (r *Router) runGeneration(ctx context.Context, turn *pendingTurn, utterance string, history []domain.HistoryLine) {
	spec := domain.GenerationSpec{
		Format:       turn.Intent.Format,
		Title:        documentTitle(turn.context.Video),
		Outline:      defaultOutline(turn.context),
		Instructions: utterance,
	}
	base := domain.AgentRequest{
		Video:   turn.context.Video,
		Query:   utterance,
		Context: turn.context.Clone(),
		History: history,
	}

	outcome := r.generation.Run(ctx, base, spec)
	turn.Invocations = append(turn.Invocations, outcome.Invocations...)
	turn.GenerationAttempts = outcome.Attempts

	switch outcome.State {
	case GenerationValidated:
		document := *outcome.Result.Document
		turn.Document = &document
		turn.Outcome = domain.OutcomeValidated
		turn.Response = documentReply(document)
		if err := turn.context.Put(domain.Artifact{
			Kind:       domain.ArtifactDocument,
			Text:       document.Title,
			Document:   &document,
			Provenance: domain.Provenance{Capability: domain.CapabilityGeneration, ProducedAt: turn.CreatedAt},
		}); err != nil {
			r.logger.Warn("record document artifact", "turn", turn.ID, "err", err)
		}
	case GenerationExhausted:
		turn.Outcome = domain.OutcomeExhaustedRetries
		turn.Failure = domain.FailureFormat
		turn.Response = exhaustedReply(spec.Format, outcome.Attempts, outcome.Result.Format)
	default:
		turn.Outcome = domain.OutcomeFailed
		turn.Failure = failureOrInference(outcome.Result.Failure)
		turn.Response = failureReply(domain.CapabilityGeneration, spec.Format, outcome.Result)
	}
	r.logger.Info("document generation finished", "state", outcome.State, "attempts", outcome.Attempts, "format", spec.Format)
}

func (r *Router) agent(capability domain.CapabilityKind) ports.Agent {
	if agent, ok := r.agents[capability]; ok {
		return agent
	}

	return missingAgent{capability: capability}
}

// commitArtifacts writes every produced artifact into video, stamping provenance.
func commitArtifacts(video *domain.VideoContext, capability domain.CapabilityKind, result domain.AgentResult, producedAt time.Time) error {
	if len(result.Artifacts) == 0 {
		return fmt.Errorf("%s returned no artifacts", capability)
	}
	for _, artifact := range result.Artifacts {
		artifact.Provenance = domain.Provenance{Capability: capability, ProducedAt: producedAt}
		if err := video.Put(artifact); err != nil {
			return fmt.Errorf("commit %s artifact: %w", capability, err)
		}
	}

	return nil
}

func failureOrInference(kind domain.FailureKind) domain.FailureKind {
	if kind == domain.FailureNone {
		return domain.FailureInference
	}

	return kind
}

func documentTitle(video domain.VideoRef) string {
	name := strings.TrimSuffix(filepath.Base(string(video)), filepath.Ext(string(video)))
	if name == "" || name == "." {
		return "Video summary"
	}

	return "Video summary: " + name
}

func defaultOutline(video domain.VideoContext) []string {
	outline := []string{"Overview"}
	if video.Has(domain.ArtifactTranscript) {
		outline = append(outline, "What is said")
	}
	if video.Has(domain.ArtifactSceneSummary) {
		outline = append(outline, "What is shown")
	}

	return append(outline, "Key takeaways")
}

// missingAgent reports a capability with no registered agent as an inference failure.
type missingAgent struct {
	capability domain.CapabilityKind
}

func (a missingAgent) Capability() domain.CapabilityKind {
	return a.capability
}

func (a missingAgent) Execute(context.Context, domain.AgentRequest) domain.AgentResult {
	return domain.Failed(domain.NewAgentError(domain.FailureInference, a.capability, domain.ErrCapabilityMissing))
}
