// Package repository loads the read-only resources the console serves from:
// the fitted pipeline and the evaluation split.
package repository

import (
	"context"
	"time"

	"github.com/okian/fraudlens/internal/adapters/dataset"
	"github.com/okian/fraudlens/internal/domain/artifact"
)

// Resource names used in logs, metrics and status.
const (
	ResourceModel = "model"
	ResourceSplit = "split"
)

// Store provides the loaded resources. Implementations load lazily and
// keep a successful load for the life of the process.
type Store interface {
	// Pipeline returns the fitted pipeline.
	Pipeline(ctx context.Context) (*artifact.Pipeline, error)
	// Split returns the train/test split.
	Split(ctx context.Context) (*dataset.Split, error)
	// Status reports what has been loaded so far.
	Status() Status
}

// ResourceStatus describes one resource.
type ResourceStatus struct {
	Path      string    `json:"path"`
	Loaded    bool      `json:"loaded"`
	LoadedAt  time.Time `json:"loaded_at"`
	LastError string    `json:"last_error,omitempty"`
}

// Status describes every resource.
type Status struct {
	Model ResourceStatus `json:"model"`
	Split ResourceStatus `json:"split"`
}
