package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"restaurant-agent/internal/agent"
	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/metrics"
	"restaurant-agent/internal/models"
	"restaurant-agent/internal/session"
)

const conversationIDHeader = "X-Conversation-ID"

// chatResponse carries the turn result plus the catalog records behind
// context.lastRestaurantIds so clients can render the current selection.
type chatResponse struct {
	Reply          string                     `json:"reply"`
	PendingAction  *models.PendingAction      `json:"pendingAction"`
	Context        models.ConversationContext `json:"context"`
	ConversationID string                     `json:"conversationId"`
	Restaurants    []models.Restaurant        `json:"restaurants"`
}

type searchResponse struct {
	Mode        models.SearchMode   `json:"mode,omitempty"`
	Count       int                 `json:"count"`
	Restaurants []models.Restaurant `json:"restaurants"`
}

func errorBody(err *apperrors.StandardError) gin.H {
	return gin.H{"error": err}
}

func (s *Server) respondError(c *gin.Context, err error) {
	stdErr := apperrors.Normalize(err)
	c.AbortWithStatusJSON(apperrors.HTTPStatus(stdErr.Code), errorBody(stdErr))
}

// chat runs one turn. The request context wins over the stored one; store
// failures are logged and never fail the turn.
func (s *Server) chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.respondError(c, apperrors.NewInvalidInputError("message is required"))
		return
	}

	id := req.ConversationID
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(conversationIDHeader, id)

	ctx := c.Request.Context()
	if s.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.turnTimeout)
		defer cancel()
	}

	if s.store != nil {
		lock, err := s.store.Lock(ctx, id)
		switch {
		case errors.Is(err, session.ErrConversationBusy):
			s.respondError(c, apperrors.NewConversationBusyError(id))
			return
		case err != nil:
			s.logger.Warn("turn lock unavailable, continuing unlocked", map[string]interface{}{
				"conversationId": id,
				"error":          err.Error(),
			})
		default:
			defer func() {
				if err := s.store.Unlock(context.WithoutCancel(ctx), lock); err != nil {
					s.logger.Warn("failed to release turn lock", map[string]interface{}{
						"conversationId": id,
						"error":          err.Error(),
					})
				}
			}()
		}
	}

	current := s.resolveContext(ctx, id, req)
	resp := s.agent.Handle(agent.WithConversationID(ctx, id), req.Message, current)

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), id, resp.Context); err != nil {
			s.logger.Warn("failed to save conversation context", map[string]interface{}{
				"conversationId": id,
				"error":          err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, chatResponse{
		Reply:          resp.Reply,
		PendingAction:  resp.PendingAction,
		Context:        resp.Context,
		ConversationID: id,
		Restaurants:    s.engine.Catalog().Lookup(resp.Context.LastRestaurantIDs),
	})
}

func (s *Server) resolveContext(ctx context.Context, id string, req models.ChatRequest) models.ConversationContext {
	if req.Context != nil || s.store == nil {
		return req.ContextOrEmpty()
	}
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("failed to load conversation context", map[string]interface{}{
			"conversationId": id,
			"error":          err.Error(),
		})
		return models.EmptyContext()
	}
	return stored
}

func (s *Server) clearConversation(c *gin.Context) {
	id := c.Param("conversationId")
	if s.store != nil {
		if err := s.store.Clear(c.Request.Context(), id); err != nil {
			s.respondError(c, err)
			return
		}
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) search(c *gin.Context) {
	q, err := parseSearchQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	mode := models.SearchMode(c.DefaultQuery("mode", string(models.SearchModeRanked)))
	results, err := s.engine.Search(mode, q)
	if err != nil {
		s.respondError(c, apperrors.NewInvalidInputError(err.Error()))
		return
	}

	metrics.SearchRequests.WithLabelValues(string(mode)).Inc()
	metrics.SearchResults.WithLabelValues(string(mode)).Observe(float64(len(results)))
	s.obs.RecordSearch(c.Request.Context(), string(mode), len(results))

	c.JSON(http.StatusOK, searchResponse{Mode: mode, Count: len(results), Restaurants: results})
}

func (s *Server) listRestaurants(c *gin.Context) {
	all := s.engine.Catalog().All()
	c.JSON(http.StatusOK, searchResponse{Count: len(all), Restaurants: all})
}

func (s *Server) getRestaurant(c *gin.Context) {
	raw := c.Param("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		s.respondError(c, apperrors.NewInvalidInputError("id must be an integer"))
		return
	}
	r, ok := s.engine.Catalog().Get(id)
	if !ok {
		s.respondError(c, apperrors.NewNotFoundError("restaurant", raw))
		return
	}
	c.JSON(http.StatusOK, r)
}

func parseSearchQuery(c *gin.Context) (models.SearchQuery, error) {
	var q models.SearchQuery
	if v := strings.TrimSpace(c.Query("name")); v != "" {
		q.Name = models.StringPtr(v)
	}
	if v := strings.TrimSpace(c.Query("cuisine")); v != "" {
		q.Cuisine = models.StringPtr(v)
	}

	for _, f := range []struct {
		param string
		out   **int
	}{
		{"rating", &q.Rating},
		{"distance", &q.Distance},
		{"price", &q.Price},
		{"limit", &q.Limit},
	} {
		raw := strings.TrimSpace(c.Query(f.param))
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return models.SearchQuery{}, apperrors.NewInvalidInputError(f.param + " must be an integer")
		}
		*f.out = models.IntPtr(n)
	}
	return q, nil
}
