package queue

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, Config{Key: "geo-test", ResultTTLSeconds: 60}), mr
}

func TestEnqueueAndProcess(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()

	key, err := q.Enqueue(ctx, "echo", map[string]string{"name": "cities.csv"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "geo-test:result:"))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	_, ready, err := q.Poll(ctx, key)
	require.NoError(t, err)
	assert.False(t, ready)

	w := NewWorker(q, nil, time.Second)
	var gotKey string
	w.Handle("echo", func(ctx context.Context, k string, payload json.RawMessage) (any, error) {
		gotKey = k
		var in map[string]string
		require.NoError(t, json.Unmarshal(payload, &in))
		return map[string]any{"download_url": "/download/" + in["name"], "num_rows": 3}, nil
	})

	processed, err := w.ProcessOne(ctx)
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, key, gotKey)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 60*time.Second, mr.TTL(key))

	res, ready, err := q.Poll(ctx, key)
	require.NoError(t, err)
	require.True(t, ready)
	assert.True(t, res.OK())
	assert.JSONEq(t, `{"download_url":"/download/cities.csv","num_rows":3}`, string(res.Result))

	_, ready, err = q.Poll(ctx, key)
	require.NoError(t, err)
	assert.False(t, ready, "results are delivered once")
}

func TestWorker_FailuresBecomeErrorResults(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()
	w := NewWorker(q, nil, time.Second)
	w.Handle("fail", func(context.Context, string, json.RawMessage) (any, error) {
		return nil, errors.New("No geographies matched")
	})
	w.Handle("panic", func(context.Context, string, json.RawMessage) (any, error) {
		panic("nil map")
	})

	tests := []struct {
		task string
		want string
	}{
		{task: "fail", want: "No geographies matched"},
		{task: "panic", want: "Error: nil map"},
		{task: "missing", want: `unknown task "missing"`},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			key, err := q.Enqueue(ctx, tt.task, nil)
			require.NoError(t, err)

			processed, err := w.ProcessOne(ctx)
			require.NoError(t, err)
			require.True(t, processed)

			res, ready, err := q.Poll(ctx, key)
			require.NoError(t, err)
			require.True(t, ready)
			assert.Equal(t, StatusError, res.Status)
			assert.Equal(t, tt.want, res.Message())
		})
	}
}

func TestResultExpires(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()
	w := NewWorker(q, nil, time.Second)
	w.Handle("noop", func(context.Context, string, json.RawMessage) (any, error) { return "done", nil })

	key, err := q.Enqueue(ctx, "noop", nil)
	require.NoError(t, err)
	_, err = w.ProcessOne(ctx)
	require.NoError(t, err)

	mr.FastForward(61 * time.Second)

	_, ready, err := q.Poll(ctx, key)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestWorker_RunStopsOnCancel(t *testing.T) {
	q, _ := newTestQueue(t)
	w := NewWorker(q, nil, time.Second)
	done := make(chan struct{})
	w.Handle("noop", func(context.Context, string, json.RawMessage) (any, error) {
		close(done)
		return "ok", nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := q.Enqueue(ctx, "noop", nil)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not processed")
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestResult_Message(t *testing.T) {
	assert.Equal(t, "boom", (&Result{Result: json.RawMessage(`"boom"`)}).Message())
	assert.Equal(t, `{"a":1}`, (&Result{Result: json.RawMessage(`{"a":1}`)}).Message())
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, 500*time.Second, Config{}.ResultTTL())
	assert.Equal(t, 5*time.Second, Config{}.PollTimeout())
	assert.Equal(t, "redis:6380", RedisConfig{Host: "redis", Port: "6380"}.Addr())
}
