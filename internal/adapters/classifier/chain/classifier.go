package chain

import (
	"context"
	"errors"
	"io"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/charmbracelet/log"
)

// Classifier asks the primary classifier first and falls back when it errors
// or returns an intent outside the closed set.
type Classifier struct {
	primary  ports.IntentClassifier
	fallback ports.IntentClassifier
	logger   *log.Logger
}

var _ ports.IntentClassifier = (*Classifier)(nil)

var (
	errNilPrimaryClassifier  = errors.New("primary classifier is nil")
	errNilFallbackClassifier = errors.New("fallback classifier is nil")
)

func NewClassifier(primary, fallback ports.IntentClassifier, logger *log.Logger) (*Classifier, error) {
	if primary == nil {
		return nil, errNilPrimaryClassifier
	}
	if fallback == nil {
		return nil, errNilFallbackClassifier
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &Classifier{primary: primary, fallback: fallback, logger: logger}, nil
}

func (c *Classifier) Classify(ctx context.Context, utterance string, video domain.VideoContext) (domain.Intent, error) {
	intent, err := c.primary.Classify(ctx, utterance, video)
	if err == nil {
		err = intent.Validate()
	}
	if err == nil {
		return intent, nil
	}
	if shouldSkipFallback(err) {
		return domain.Intent{}, err
	}

	c.logger.Warn("primary classifier failed, using fallback", "err", err)
	return c.fallback.Classify(ctx, utterance, video)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
