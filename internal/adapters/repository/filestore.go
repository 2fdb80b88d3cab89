package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/fraudlens/internal/adapters/dataset"
	"github.com/okian/fraudlens/internal/domain/artifact"
	"github.com/okian/fraudlens/pkg/logger"
	"github.com/okian/fraudlens/pkg/metrics"
)

// FileStore loads resources from disk on first use and memoizes them.
// Failed loads are not cached, so fixing a file recovers without a restart.
// Concurrent first requests share one load.
type FileStore struct {
	modelPath string
	paths     dataset.Paths

	mu       sync.RWMutex
	pipeline *artifact.Pipeline
	split    *dataset.Split
	status   Status

	group  singleflight.Group
	logger logger.Logger
	now    func() time.Time
}

// NewFileStore creates a store reading the artifact at modelPath and the
// split files at paths. Nothing is read until first use.
func NewFileStore(modelPath string, paths dataset.Paths, opts ...Option) *FileStore {
	s := &FileStore{
		modelPath: modelPath,
		paths:     paths,
		now:       time.Now,
	}
	s.status.Model.Path = modelPath
	s.status.Split.Path = paths.TestFeatures
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pipeline returns the fitted pipeline, loading it on first call.
func (s *FileStore) Pipeline(ctx context.Context) (*artifact.Pipeline, error) {
	s.mu.RLock()
	p := s.pipeline
	s.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	v, err := s.load(ctx, ResourceModel, func(context.Context) (any, error) {
		return artifact.Load(s.modelPath)
	})
	if err != nil {
		return nil, err
	}
	return v.(*artifact.Pipeline), nil
}

// Split returns the evaluation split, loading it on first call.
func (s *FileStore) Split(ctx context.Context) (*dataset.Split, error) {
	s.mu.RLock()
	sp := s.split
	s.mu.RUnlock()
	if sp != nil {
		return sp, nil
	}

	v, err := s.load(ctx, ResourceSplit, func(ctx context.Context) (any, error) {
		return dataset.LoadSplit(ctx, s.paths)
	})
	if err != nil {
		return nil, err
	}
	return v.(*dataset.Split), nil
}

// load runs fn once per resource among concurrent callers and memoizes a
// successful result.
func (s *FileStore) load(ctx context.Context, resource string, fn func(context.Context) (any, error)) (any, error) {
	v, err, _ := s.group.Do(resource, func() (any, error) {
		// Another caller may have finished between our check and Do.
		if v := s.cached(resource); v != nil {
			return v, nil
		}

		start := s.now()
		v, err := fn(ctx)
		elapsed := s.now().Sub(start)
		ms := float64(elapsed.Microseconds()) / 1000

		s.mu.Lock()
		st := s.resourceStatus(resource)
		if err != nil {
			st.LastError = err.Error()
			s.mu.Unlock()
			metrics.RecordResourceLoad(resource, "error", ms)
			if s.logger != nil {
				s.logger.Error(ctx, "resource load failed",
					logger.String("resource", resource),
					logger.String("path", st.Path),
					logger.Error(err),
				)
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrResourceUnavailable, resource, err)
		}
		switch x := v.(type) {
		case *artifact.Pipeline:
			s.pipeline = x
		case *dataset.Split:
			s.split = x
		}
		st.Loaded = true
		st.LoadedAt = s.now()
		st.LastError = ""
		s.mu.Unlock()

		metrics.RecordResourceLoad(resource, "ok", ms)
		if s.logger != nil {
			s.logger.Info(ctx, "resource loaded",
				logger.String("resource", resource),
				logger.String("path", st.Path),
				logger.Duration("elapsed", elapsed),
			)
		}
		return v, nil
	})
	return v, err
}

func (s *FileStore) cached(resource string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch resource {
	case ResourceModel:
		if s.pipeline != nil {
			return s.pipeline
		}
	case ResourceSplit:
		if s.split != nil {
			return s.split
		}
	}
	return nil
}

// resourceStatus must be called with mu held.
func (s *FileStore) resourceStatus(resource string) *ResourceStatus {
	if resource == ResourceModel {
		return &s.status.Model
	}
	return &s.status.Split
}

// Status reports what has been loaded so far.
func (s *FileStore) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}
