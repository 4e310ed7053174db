package searchrestaurants

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
)

const (
	TaskType = "search-restaurants"
)

var (
	ErrInvalidInput = errors.New("INVALID_INPUT")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Searcher runs a catalog search in the given mode.
type Searcher interface {
	Search(mode models.SearchMode, q models.SearchQuery) ([]models.Restaurant, error)
}

type Handler struct {
	config *Config
	engine Searcher
	errors *apperrors.ErrorHandler
	logger Logger
}

func NewHandler(config *Config, engine Searcher, log Logger) *Handler {
	scoped := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config: config,
		engine: engine,
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, fmt.Errorf("%w: parse variables: %v", ErrInvalidInput, err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	mode := input.Mode
	if mode == "" {
		mode = models.SearchModeRanked
	}

	results, err := h.engine.Search(mode, input.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	metrics.SearchRequests.WithLabelValues(string(mode)).Inc()
	metrics.SearchResults.WithLabelValues(string(mode)).Observe(float64(len(results)))

	h.logger.Info("search completed", map[string]interface{}{
		"mode":  string(mode),
		"count": len(results),
	})

	return &Output{
		Restaurants:   results,
		RestaurantIDs: models.IDs(results),
		Count:         len(results),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	stdErr := apperrors.Normalize(err)
	if errors.Is(err, ErrInvalidInput) {
		stdErr = apperrors.NewInvalidInputError(err.Error())
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
