package oracle

import (
	"context"
	"fmt"
	"strings"

	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

const defaultLabelTokens = 10

var (
	intentVocabulary = []string{
		string(models.IntentSearch),
		string(models.IntentReserve),
	}
	confirmationVocabulary = []string{
		string(models.ConfirmationConfirm),
		string(models.ConfirmationReject),
		string(models.ConfirmationSelect),
		string(models.ConfirmationContinue),
		string(models.ConfirmationUnknown),
	}
)

const intentPrompt = `You are a restaurant assistant.
Determine whether the user wants to:
- search for restaurants
- make a reservation

User input: %s

Respond with exactly one word:
SEARCH or RESERVE`

const confirmationPrompt = `You are a restaurant assistant.
%s
Classify the user's reply as one of:
- CONFIRM: the user agrees or wants to go ahead
- REJECT: the user cancels or declines
- SELECT: the user picks a specific restaurant
- CONTINUE: the user wants to change or refine the search
- UNKNOWN: the reply is a new, unrelated request

User input: %s

Respond with exactly one word:
CONFIRM, REJECT, SELECT, CONTINUE or UNKNOWN`

var pendingDescriptions = map[models.ActionType]string{
	models.ActionSearch:             "You just showed the user a list of restaurants and are waiting for them to react to it.",
	models.ActionPendingReservation: "You are setting up a reservation and are waiting for the user to confirm it or choose a restaurant.",
}

// Classifier maps free text to closed-vocabulary labels. It never retries.
type Classifier struct {
	backend   Backend
	maxTokens int
	logger    logger.Logger
}

type ClassifierOption func(*Classifier)

// WithLabelTokens caps the completion length of a label call.
func WithLabelTokens(n int) ClassifierOption {
	return func(c *Classifier) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

func NewClassifier(backend Backend, log logger.Logger, opts ...ClassifierOption) *Classifier {
	c := &Classifier{
		backend:   backend,
		maxTokens: defaultLabelTokens,
		logger:    log.With(map[string]interface{}{"component": "oracle.classifier"}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClassifyIntent returns SEARCH or RESERVE.
func (c *Classifier) ClassifyIntent(ctx context.Context, message string) Result {
	return c.classify(ctx, "intent", fmt.Sprintf(intentPrompt, message), intentVocabulary)
}

// ClassifyConfirmation returns one of CONFIRM, REJECT, SELECT, CONTINUE, UNKNOWN.
func (c *Classifier) ClassifyConfirmation(ctx context.Context, message string, pending models.ActionType) Result {
	desc, ok := pendingDescriptions[pending]
	if !ok {
		desc = "You are waiting for the user to respond to your last message."
	}
	return c.classify(ctx, "confirmation", fmt.Sprintf(confirmationPrompt, desc, message), confirmationVocabulary)
}

func (c *Classifier) classify(ctx context.Context, kind, prompt string, vocabulary []string) Result {
	raw, err := c.backend.Complete(ctx, prompt, c.maxTokens)
	if err != nil {
		res := Result{Failure: FailureOf(err)}
		c.record(kind, res)
		c.logger.Warn("classification call failed", map[string]interface{}{
			"kind":    kind,
			"failure": string(res.Failure.Kind),
			"error":   err.Error(),
		})
		return res
	}

	label := NormalizeLabel(raw)
	for _, allowed := range vocabulary {
		if label == allowed {
			res := labelResult(label)
			c.record(kind, res)
			return res
		}
	}

	res := failureResult(FailureClassification, raw, fmt.Errorf("label %q outside vocabulary", raw))
	c.record(kind, res)
	c.logger.Warn("classifier returned label outside vocabulary", map[string]interface{}{
		"kind": kind,
		"raw":  raw,
	})
	return res
}

func (c *Classifier) record(kind string, res Result) {
	result := "ok"
	if !res.OK() {
		result = string(res.Failure.Kind)
	}
	metrics.Classifications.WithLabelValues(kind, result).Inc()
}

// NormalizeLabel strips surrounding whitespace, quotes and punctuation and
// upper-cases the rest.
func NormalizeLabel(raw string) string {
	return strings.ToUpper(strings.Trim(raw, " \t\r\n\"'`*.!,;:"))
}
