package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Message is one queued job.
type Message struct {
	Task       string          `json:"task"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Result is the stored outcome of a job: {status: ok|error, result: ...}.
type Result struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

// OK reports whether the job succeeded.
func (r *Result) OK() bool {
	return r.Status == StatusOK
}

// Message returns the result as a string when it is one (error results).
func (r *Result) Message() string {
	var s string
	if err := json.Unmarshal(r.Result, &s); err != nil {
		return string(r.Result)
	}
	return s
}

// OpenRedis creates a client for cfg. It does not connect.
func OpenRedis(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr(), Password: cfg.Password, DB: cfg.DB})
}

// Queue is a FIFO of jobs in a Redis list plus per-job result keys.
// Exclusivity between workers relies on the pop-once semantics of BLPOP.
type Queue struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// New creates a queue on rdb.
func New(rdb *redis.Client, cfg Config) *Queue {
	key := cfg.Key
	if key == "" {
		key = "geomancer"
	}
	return &Queue{rdb: rdb, key: key, ttl: cfg.ResultTTL()}
}

// Key returns the list key.
func (q *Queue) Key() string {
	return q.key
}

// Enqueue pushes a job and returns the key its result will be stored under.
func (q *Queue) Enqueue(ctx context.Context, task string, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s payload: %w", task, err)
	}
	msg := Message{
		Task:       task,
		Key:        q.key + ":result:" + uuid.NewString(),
		Payload:    body,
		EnqueuedAt: time.Now().UTC(),
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	if err := q.rdb.RPush(ctx, q.key, raw).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue %s: %w", task, err)
	}
	return msg.Key, nil
}

// Poll returns the result stored under key. ready is false while the job is
// pending, or after the result expired. A returned result is deleted.
func (q *Queue) Poll(ctx context.Context, key string) (*Result, bool, error) {
	raw, err := q.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read result %s: %w", key, err)
	}
	if err := q.rdb.Del(ctx, key).Err(); err != nil {
		return nil, false, fmt.Errorf("failed to delete result %s: %w", key, err)
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, false, fmt.Errorf("invalid result %s: %w", key, err)
	}
	return &res, true, nil
}

// Pending returns the number of queued jobs.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// pop blocks up to timeout for the next message. It returns nil on timeout.
func (q *Queue) pop(ctx context.Context, timeout time.Duration) (*Message, error) {
	vals, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var msg Message
	if err := json.Unmarshal([]byte(vals[1]), &msg); err != nil {
		return nil, fmt.Errorf("invalid queue message: %w", err)
	}
	return &msg, nil
}

// store saves a result with the configured TTL.
func (q *Queue) store(ctx context.Context, key string, res Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return q.rdb.Set(ctx, key, raw, q.ttl).Err()
}
