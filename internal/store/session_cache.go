package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/askhr/askhr/internal/metrics"
)

const (
	sessionKeyPrefix      = "askhr:session:"
	conversationKeyPrefix = "askhr:conversation:"
)

// SessionCache caches the session -> conversation lookup in Redis. Redis
// failures fall through to the wrapped store.
type SessionCache struct {
	ConversationStore
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionCache(next ConversationStore, rdb *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{ConversationStore: next, rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	return redis.NewClient(opts), nil
}

func (c *SessionCache) GetBySessionID(ctx context.Context, sessionID string) (*Conversation, error) {
	raw, err := c.rdb.Get(ctx, sessionKeyPrefix+sessionID).Bytes()
	switch {
	case err == nil:
		var conv Conversation
		if jerr := json.Unmarshal(raw, &conv); jerr == nil {
			metrics.SessionCacheTotal.WithLabelValues("hit").Inc()
			return &conv, nil
		}
		metrics.SessionCacheTotal.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		metrics.SessionCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.SessionCacheTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("session_id", sessionID).Msg("session cache read failed")
	}

	conv, err := c.ConversationStore.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, conv)
	return conv, nil
}

func (c *SessionCache) CreateConversation(ctx context.Context, sessionID, userID string) (*Conversation, error) {
	conv, err := c.ConversationStore.CreateConversation(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	c.put(ctx, conv)
	return conv, nil
}

func (c *SessionCache) UpdateStatus(ctx context.Context, conversationID, status string) error {
	if err := c.ConversationStore.UpdateStatus(ctx, conversationID, status); err != nil {
		return err
	}
	sessionID, err := c.rdb.Get(ctx, conversationKeyPrefix+conversationID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("conversation_id", conversationID).Msg("session cache lookup failed")
		}
		return nil
	}
	if err := c.rdb.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		log.Warn().Err(err).Str("conversation_id", conversationID).Msg("session cache invalidate failed")
	}
	return nil
}

// Ping checks the Redis connection.
func (c *SessionCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *SessionCache) put(ctx context.Context, conv *Conversation) {
	raw, err := json.Marshal(conv)
	if err != nil {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+conv.SessionID, raw, c.ttl)
	pipe.Set(ctx, conversationKeyPrefix+conv.ID, conv.SessionID, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("session_id", conv.SessionID).Msg("session cache write failed")
	}
}
