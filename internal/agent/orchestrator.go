// Package agent implements the conversation orchestrator: a stateless
// dialogue state machine driven by oracle labels.
package agent

import (
	"context"
	"fmt"
	"time"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/common/observability"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/oracle"
)

// IntentClassifier is the labelling half of the oracle.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, message string) oracle.Result
	ClassifyConfirmation(ctx context.Context, message string, pending models.ActionType) oracle.Result
}

// QueryExtractor derives a SearchQuery from free text.
type QueryExtractor interface {
	Extract(ctx context.Context, message string) (models.SearchQuery, error)
}

// Searcher runs ranked catalog searches.
type Searcher interface {
	Ranked(q models.SearchQuery) []models.Restaurant
}

type Orchestrator struct {
	classifier      IntentClassifier
	extractor       QueryExtractor
	engine          Searcher
	reservationName string
	obs             *observability.Observability
	logger          logger.Logger
}

type Option func(*Orchestrator)

// WithReservationName makes the proceed reply name the booking.
func WithReservationName(name string) Option {
	return func(o *Orchestrator) { o.reservationName = name }
}

func WithObservability(obs *observability.Observability) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func New(classifier IntentClassifier, extractor QueryExtractor, engine Searcher, log logger.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		classifier: classifier,
		extractor:  extractor,
		engine:     engine,
		logger:     log.With(map[string]interface{}{"component": "agent"}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type conversationIDKey struct{}

// WithConversationID tags ctx so turn logs carry the conversation id.
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey{}, id)
}

func conversationID(ctx context.Context) string {
	id, _ := ctx.Value(conversationIDKey{}).(string)
	return id
}

// turn carries the inputs of a single Handle call.
type turn struct {
	o       *Orchestrator
	ctx     context.Context
	message string
	prior   models.ConversationContext
	label   string
	failure *oracle.Failure
}

// Handle runs one conversation turn. It never fails: errors and panics
// become an apology reply with a nil pending action and the input context.
func (o *Orchestrator) Handle(ctx context.Context, message string, current models.ConversationContext) (resp models.ChatResponse) {
	start := time.Now()
	state := StateOf(current)
	ctx, span := o.obs.StartTurn(ctx, string(state))
	t := &turn{o: o, ctx: ctx, message: message, prior: current.Clone()}

	defer func() {
		outcome := "ok"
		if r := recover(); r != nil {
			resp = o.fail(t, &oracle.Failure{Kind: oracle.FailureUnexpected, Err: fmt.Errorf("panic: %v", r)})
			outcome = string(oracle.FailureUnexpected)
		} else if t.failed() {
			outcome = string(t.failure.Kind)
		}

		elapsed := time.Since(start)
		metrics.AgentTurns.WithLabelValues(string(state), t.label, outcome).Inc()
		metrics.AgentTurnDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
		o.obs.RecordTurn(ctx, elapsed, outcome)
		span.End(t.label, outcome)

		o.logger.Info("turn handled", map[string]interface{}{
			"conversationId": conversationID(ctx),
			"traceId":        observability.TraceID(ctx),
			"state":          string(state),
			"label":          t.label,
			"nextState":      string(StateOf(resp.Context)),
			"outcome":        outcome,
			"durationMs":     elapsed.Milliseconds(),
		})
	}()

	var err error
	if state == StateIdle {
		resp, err = t.fresh()
	} else {
		resp, err = t.confirm()
	}
	if err != nil {
		resp = o.fail(t, err)
	}
	return resp
}

// fresh classifies the message as a top-level request.
func (t *turn) fresh() (models.ChatResponse, error) {
	res := t.o.classifier.ClassifyIntent(t.ctx, t.message)
	if !res.OK() {
		return models.ChatResponse{}, res.Failure
	}
	t.label = res.Label

	handler, ok := intentHandlers[models.Intent(res.Label)]
	if !ok {
		return models.ChatResponse{}, unknownLabel(res.Label)
	}
	return handler(t)
}

// confirm classifies the message against the pending action.
func (t *turn) confirm() (models.ChatResponse, error) {
	state := StateOf(t.prior)
	res := t.o.classifier.ClassifyConfirmation(t.ctx, t.message, t.prior.PendingAction.Type)
	if !res.OK() {
		return models.ChatResponse{}, res.Failure
	}
	t.label = res.Label

	handler, ok := transitions[Transition{State: state, Label: models.ConfirmationIntent(res.Label)}]
	if !ok {
		return models.ChatResponse{}, unknownLabel(res.Label)
	}
	return handler(t)
}

func unknownLabel(label string) *oracle.Failure {
	return &oracle.Failure{
		Kind:   oracle.FailureClassification,
		Reason: label,
		Err:    fmt.Errorf("label %q has no transition", label),
	}
}

func (t *turn) failed() bool { return t.failure != nil }

// fail builds the apology reply for err and leaves the caller's context as it was.
func (o *Orchestrator) fail(t *turn, err error) models.ChatResponse {
	f := oracle.FailureOf(err)
	t.failure = f

	fields := map[string]interface{}{
		"conversationId": conversationID(t.ctx),
		"failure":        string(f.Kind),
		"error":          f.Error(),
	}

	var reply string
	switch f.Kind {
	case oracle.FailureClassification:
		o.logger.Warn("could not classify message", fields)
		reply = apperrors.MessageNotUnderstood
	case oracle.FailureUpstream:
		o.logger.Error("oracle call failed", fields)
		reply = f.Reason
		if reply == "" {
			reply = apperrors.MessageGenericFailure
		}
	default:
		o.logger.Error("turn failed unexpectedly", fields)
		reply = apperrors.MessageGenericFailure
	}

	return models.ChatResponse{Reply: reply, Context: t.prior.Clone()}
}
