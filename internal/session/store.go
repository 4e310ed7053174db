// Package session persists conversation contexts between turns and
// serializes turns of the same conversation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "restaurant-agent/internal/common/errors"
	"restaurant-agent/internal/common/logger"
	"restaurant-agent/internal/models"
)

const (
	contextKeyPrefix = "agent:ctx:"
	lockKeyPrefix    = "agent:lock:"
)

var ErrConversationBusy = errors.New("CONVERSATION_BUSY")

// unlockScript deletes the lock only while it still holds our token.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type Config struct {
	ContextTTL time.Duration
	LockTTL    time.Duration
}

type Store struct {
	client redis.Cmdable
	cfg    Config
	logger logger.Logger
}

func NewStore(client redis.Cmdable, cfg Config, log logger.Logger) *Store {
	return &Store{
		client: client,
		cfg:    cfg,
		logger: log.With(map[string]interface{}{"component": "session"}),
	}
}

func contextKey(conversationID string) string { return contextKeyPrefix + conversationID }
func lockKey(conversationID string) string    { return lockKeyPrefix + conversationID }

// Get returns the stored context, or an empty one when nothing is stored.
func (s *Store) Get(ctx context.Context, conversationID string) (models.ConversationContext, error) {
	data, err := s.client.Get(ctx, contextKey(conversationID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.EmptyContext(), nil
	}
	if err != nil {
		return models.EmptyContext(), apperrors.NewContextStoreError("get", err)
	}

	var c models.ConversationContext
	if err := json.Unmarshal(data, &c); err != nil {
		return models.EmptyContext(), apperrors.NewContextStoreError("decode", err)
	}
	return c, nil
}

func (s *Store) Save(ctx context.Context, conversationID string, c models.ConversationContext) error {
	data, err := json.Marshal(c)
	if err != nil {
		return apperrors.NewContextStoreError("encode", err)
	}
	if err := s.client.Set(ctx, contextKey(conversationID), data, s.cfg.ContextTTL).Err(); err != nil {
		return apperrors.NewContextStoreError("save", err)
	}

	s.logger.Debug("context saved", map[string]interface{}{
		"conversationId": conversationID,
		"state":          pendingType(c),
	})
	return nil
}

// Clear forgets a conversation so its next turn starts from Idle.
func (s *Store) Clear(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, contextKey(conversationID)).Err(); err != nil {
		return apperrors.NewContextStoreError("clear", err)
	}
	return nil
}

// Lock is a held per-conversation turn lock.
type Lock struct {
	conversationID string
	token          string
}

// Lock claims the turn lock for a conversation. It does not wait: a held
// lock yields ErrConversationBusy. The lock expires after LockTTL.
func (s *Store) Lock(ctx context.Context, conversationID string) (*Lock, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey(conversationID), token, s.cfg.LockTTL).Result()
	if err != nil {
		return nil, apperrors.NewContextStoreError("lock", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationBusy, conversationID)
	}
	return &Lock{conversationID: conversationID, token: token}, nil
}

// Unlock releases l unless it already expired and was claimed by another turn.
func (s *Store) Unlock(ctx context.Context, l *Lock) error {
	if l == nil {
		return nil
	}
	n, err := s.client.Eval(ctx, unlockScript, []string{lockKey(l.conversationID)}, l.token).Int()
	if err != nil {
		return apperrors.NewContextStoreError("unlock", err)
	}
	if n == 0 {
		s.logger.Warn("turn lock expired before release", map[string]interface{}{
			"conversationId": l.conversationID,
		})
	}
	return nil
}

// Ping reports whether the backing redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func pendingType(c models.ConversationContext) string {
	if c.PendingAction == nil {
		return ""
	}
	return string(c.PendingAction.Type)
}
