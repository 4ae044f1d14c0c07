// Package reconcile writes labeled shapes to STEP. Labels are keyed by face
// identity, so export re-enumerates the transferred shape and attaches each
// label to the entity of the face whose identity matches.
package reconcile

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/internal/faceid"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/step"
)

var (
	// ErrWrite wraps failures to store the exported file
	ErrWrite = errors.New("export write failed")
	// ErrInvalidPath is returned for an empty destination
	ErrInvalidPath = errors.New("invalid export path")
)

// Writer is the STEP transfer writer used by Export
type Writer interface {
	Transfer(shape *kernel.Shape) error
	FindEntity(face *kernel.Face) (*step.Entity, bool)
	Write(path string) error
}

// Unmatched is a label whose face was not found after transfer
type Unmatched struct {
	ID    faceid.Identity
	Label labels.Label
}

func (u Unmatched) String() string {
	return fmt.Sprintf("%s (%s)", u.ID, u.Label)
}

// Result summarizes an export
type Result struct {
	Path      string
	Faces     int
	Annotated int
	Unmatched []Unmatched
}

// Exporter runs exports with a fresh writer per call
type Exporter struct {
	NewWriter func() Writer
	Logger    *zap.Logger
}

// NewExporter creates an exporter backed by kernel.StepWriter
func NewExporter(logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		NewWriter: func() Writer { return kernel.NewStepWriter() },
		Logger:    logger,
	}
}

// Export transfers shape, names the entities of labeled faces and writes
// the file. Labels whose identity matches no face after transfer are
// returned in Result.Unmatched; they do not prevent the write. A failed
// write returns an error wrapping ErrWrite.
func (e *Exporter) Export(shape *kernel.Shape, working map[faceid.Identity]labels.Label, destination string) (*Result, error) {
	if destination == "" {
		return nil, ErrInvalidPath
	}

	w := e.NewWriter()
	if err := w.Transfer(shape); err != nil {
		return nil, fmt.Errorf("transfer failed: %w", err)
	}

	// Working copy, entries are removed as they are matched
	remaining := make(map[faceid.Identity]labels.Label, len(working))
	for id, l := range working {
		remaining[id] = l
	}

	result := &Result{Path: destination}
	for i, face := range shape.Faces() {
		result.Faces++
		id := faceid.Compute(i, face)
		label, ok := remaining[id]
		if !ok {
			continue
		}
		entity, found := w.FindEntity(face)
		if !found {
			e.Logger.Warn("no entity for labeled face", zap.Stringer("face", id))
			continue
		}
		if err := entity.SetName(string(label)); err != nil {
			e.Logger.Warn("cannot name entity", zap.Stringer("face", id), zap.Error(err))
			continue
		}
		delete(remaining, id)
		result.Annotated++
	}

	for id, l := range remaining {
		result.Unmatched = append(result.Unmatched, Unmatched{ID: id, Label: l})
	}
	sort.Slice(result.Unmatched, func(i, j int) bool {
		a, b := result.Unmatched[i].ID, result.Unmatched[j].ID
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.Fingerprint.String() < b.Fingerprint.String()
	})

	if err := w.Write(destination); err != nil {
		return result, fmt.Errorf("%w: %s: %w", ErrWrite, destination, err)
	}

	e.Logger.Info("exported STEP file",
		zap.String("path", destination),
		zap.Int("faces", result.Faces),
		zap.Int("annotated", result.Annotated),
		zap.Int("unmatched", len(result.Unmatched)))
	return result, nil
}

// Export runs an export with the default kernel writer
func Export(shape *kernel.Shape, working map[faceid.Identity]labels.Label, destination string) (*Result, error) {
	return NewExporter(nil).Export(shape, working, destination)
}
