package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
)

// ReviewEvent is broadcast after a grade lands, so a connected client can
// refresh its review queue without polling.
type ReviewEvent struct {
	Type         string    `json:"type"`
	UserID       uuid.UUID `json:"user_id"`
	QuestionID   uuid.UUID `json:"question_id"`
	Quality      int       `json:"quality"`
	IntervalDays int       `json:"interval_days"`
	NextReviewAt time.Time `json:"next_review_at"`
	At           time.Time `json:"at"`
}

const EventReviewGraded = "review.graded"

type ReviewBus interface {
	Publish(ctx context.Context, event ReviewEvent) error
	Close() error
}

type redisReviewBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

// NewRedisReviewBus connects to REDIS_ADDR and publishes to
// REVIEW_EVENTS_CHANNEL (default "review-events"). Callers treat a nil bus as
// "notifications disabled".
func NewRedisReviewBus(log *logger.Logger) (ReviewBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REVIEW_EVENTS_CHANNEL"))
	if ch == "" {
		ch = "review-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisReviewBus{
		log:     log.With("service", "RedisReviewBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *redisReviewBus) Publish(ctx context.Context, event ReviewEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("review bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisReviewBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
