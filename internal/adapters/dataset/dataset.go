// Package dataset loads the fixed train/test split the evaluation runs on.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/okian/fraudlens/internal/domain/model"
)

// Paths locates the four split files.
type Paths struct {
	TrainFeatures string
	TrainLabels   string
	TestFeatures  string
	TestLabels    string
}

// Partition is one side of the split.
type Partition struct {
	Features model.Frame
	Labels   []int
}

// Len returns the number of rows.
func (p Partition) Len() int { return len(p.Labels) }

// Split holds both partitions. Train is loaded and reported but the
// evaluation only scores Test.
type Split struct {
	Train Partition
	Test  Partition
}

// LoadSplit reads all four files. Any failure aborts the whole load.
func LoadSplit(ctx context.Context, paths Paths) (*Split, error) {
	train, err := loadPartition(ctx, paths.TrainFeatures, paths.TrainLabels)
	if err != nil {
		return nil, fmt.Errorf("train: %w", err)
	}
	test, err := loadPartition(ctx, paths.TestFeatures, paths.TestLabels)
	if err != nil {
		return nil, fmt.Errorf("test: %w", err)
	}
	return &Split{Train: *train, Test: *test}, nil
}

func loadPartition(ctx context.Context, featuresPath, labelsPath string) (*Partition, error) {
	features, err := readFrame(ctx, featuresPath)
	if err != nil {
		return nil, err
	}
	labelFrame, err := readFrame(ctx, labelsPath)
	if err != nil {
		return nil, err
	}
	if len(labelFrame.Columns) != 1 {
		return nil, fmt.Errorf("%w: %s has %d columns, want 1", ErrMalformed, labelsPath, len(labelFrame.Columns))
	}
	if features.Len() != labelFrame.Len() {
		return nil, fmt.Errorf("%w: %s has %d rows, %s has %d",
			ErrMismatch, featuresPath, features.Len(), labelsPath, labelFrame.Len())
	}

	labels := make([]int, labelFrame.Len())
	for i, row := range labelFrame.Rows {
		l, err := parseLabel(row[0].(string))
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %w", ErrMalformed, labelsPath, i+1, err)
		}
		labels[i] = l
	}
	return &Partition{Features: *features, Labels: labels}, nil
}

// parseLabel accepts 0/1 written as integers, floats, or booleans.
func parseLabel(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "true":
		return model.Fraud, nil
	case "false":
		return model.Legitimate, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("label %q is not numeric", s)
	}
	switch f {
	case 0:
		return model.Legitimate, nil
	case 1:
		return model.Fraud, nil
	default:
		return 0, fmt.Errorf("label %v is not 0 or 1", f)
	}
}

// readFrame reads a CSV file with a header row. Cells stay strings; the
// pipeline coerces them per column.
func readFrame(ctx context.Context, path string) (*model.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s is empty", ErrMalformed, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformed, path, err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	frame := &model.Frame{Columns: header}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// csv reports ragged rows as ErrFieldCount.
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrMalformed, path, line, err)
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame, nil
}
