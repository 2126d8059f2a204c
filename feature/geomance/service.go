package geomance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"geomancer/core/mancer"
	"geomancer/core/merge"
	"geomancer/core/output"
	"geomancer/core/queue"
	"geomancer/core/spreadsheet"
	"geomancer/core/storage"
	"geomancer/feature/geomance/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Task is the queue task name of a merge job.
const Task = "geomance"

// ErrUnknownJob is returned for result keys this queue never issued.
var ErrUnknownJob = errors.New("unknown job")

// InputError wraps a problem with the submitted file or field definition.
// Nothing was enqueued.
type InputError struct {
	Err error
}

func (e *InputError) Error() string { return e.Err.Error() }

func (e *InputError) Unwrap() error { return e.Err }

// RosterSource builds the adapter roster of one job.
type RosterSource interface {
	Roster() *mancer.Roster
}

// Payload is the queued job body. The upload is referenced by Object when
// object storage is configured, inline in Data otherwise.
type Payload struct {
	Filename  string                     `json:"filename"`
	Object    string                     `json:"object,omitempty"`
	Data      []byte                     `json:"data,omitempty"`
	FieldDefs map[string]merge.FieldSpec `json:"field_defs"`
}

// Uploads keeps submitted files in object storage until their job ran.
type Uploads struct {
	Client storage.Client
	Bucket string
	Prefix string
}

// Service submits, runs and reports merge jobs.
type Service struct {
	engine  *merge.Engine
	rosters RosterSource
	queue   *queue.Queue
	store   output.Store
	uploads *Uploads
	history *History
	limits  spreadsheet.Config
	logger  *zap.Logger
}

// NewService creates a service. uploads may be nil.
func NewService(engine *merge.Engine, rosters RosterSource, q *queue.Queue, store output.Store, uploads *Uploads, history *History, limits spreadsheet.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if history == nil {
		history = NewHistory(nil)
	}
	return &Service{
		engine:  engine,
		rosters: rosters,
		queue:   q,
		store:   store,
		uploads: uploads,
		history: history,
		limits:  limits,
		logger:  logger,
	}
}

// prepare parses the upload and field definition into a merge input.
func (s *Service) prepare(filename string, data []byte, defs map[string]merge.FieldSpec) (merge.Input, error) {
	sheet, err := spreadsheet.Read(filename, data, s.limits)
	if err != nil {
		return merge.Input{}, err
	}
	field, err := merge.ParseFieldDefinitions(defs)
	if err != nil {
		return merge.Input{}, err
	}
	return merge.Input{Header: sheet.Header, Rows: sheet.Rows, Field: *field, Filename: filename}, nil
}

// Submit validates the upload and enqueues a merge job. Validation failures
// are returned as *InputError before anything is stored.
func (s *Service) Submit(ctx context.Context, filename string, data []byte, defs map[string]merge.FieldSpec) (string, error) {
	in, err := s.prepare(filename, data, defs)
	if err != nil {
		return "", &InputError{Err: err}
	}
	if err := s.engine.Validate(in); err != nil {
		return "", &InputError{Err: err}
	}

	payload := Payload{Filename: filename, FieldDefs: defs}
	if s.uploads != nil {
		object := strings.TrimSuffix(s.uploads.Prefix, "/") + "/" + uuid.NewString() + "/" + path.Base(filename)
		_, err := s.uploads.Client.PutObject(ctx, s.uploads.Bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
		if err != nil {
			return "", fmt.Errorf("failed to store upload: %w", err)
		}
		payload.Object = object
	} else {
		payload.Data = data
	}

	key, err := s.queue.Enqueue(ctx, Task, payload)
	if err != nil {
		return "", err
	}
	if err := s.history.Queued(ctx, key, filename, in.Field.Combination.Key()); err != nil {
		s.logger.Warn("Failed to record job", zap.String("job_key", key), zap.Error(err))
	}
	s.logger.Info("Job queued",
		zap.String("job_key", key),
		zap.String("filename", filename),
		zap.Int("rows", len(in.Rows)),
	)
	return key, nil
}

// Process is the queue handler of Task.
func (s *Service) Process(ctx context.Context, key string, raw json.RawMessage) (any, error) {
	summary, err := s.process(ctx, raw)
	if herr := s.history.Finished(ctx, key, summary, err); herr != nil {
		s.logger.Warn("Failed to record job outcome", zap.String("job_key", key), zap.Error(herr))
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *Service) process(ctx context.Context, raw json.RawMessage) (*merge.Summary, error) {
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("invalid job payload: %w", err)
	}
	data, err := s.loadUpload(ctx, p)
	if err != nil {
		return nil, err
	}
	in, err := s.prepare(p.Filename, data, p.FieldDefs)
	if err != nil {
		return nil, err
	}
	return s.engine.Run(ctx, s.rosters.Roster(), in, merge.NewResolutionCache())
}

// loadUpload returns the file contents and drops the stored upload.
func (s *Service) loadUpload(ctx context.Context, p Payload) ([]byte, error) {
	if p.Object == "" {
		return p.Data, nil
	}
	if s.uploads == nil {
		return nil, errors.New("job references an upload but object storage is not configured")
	}
	body, err := s.uploads.Client.GetObject(ctx, s.uploads.Bucket, p.Object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	objects := make(chan minio.ObjectInfo, 1)
	objects <- minio.ObjectInfo{Key: p.Object}
	close(objects)
	for rerr := range s.uploads.Client.RemoveObjects(ctx, s.uploads.Bucket, objects, minio.RemoveObjectsOptions{}) {
		s.logger.Warn("Failed to remove upload", zap.String("object", rerr.ObjectName), zap.Error(rerr.Err))
	}
	return data, nil
}

// Result polls a job. A returned result is consumed.
func (s *Service) Result(ctx context.Context, key string) (*queue.Result, bool, error) {
	if !strings.HasPrefix(key, s.queue.Key()+":result:") {
		return nil, false, ErrUnknownJob
	}
	return s.queue.Poll(ctx, key)
}

// Download opens a result artifact.
func (s *Service) Download(ctx context.Context, name string) (*output.Artifact, error) {
	return s.store.Open(ctx, name)
}

// Jobs returns the newest jobs.
func (s *Service) Jobs(ctx context.Context, limit int) ([]models.JobRecord, error) {
	return s.history.Recent(ctx, limit)
}

// ExpireResults removes artifacts older than maxAge.
func (s *Service) ExpireResults(ctx context.Context, maxAge time.Duration) (int, error) {
	n, err := s.store.Expire(ctx, maxAge)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired results", zap.Int("count", n))
	}
	return n, nil
}
