package kernel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/pkg/openscad"
	"github.com/philipparndt/facelabel/pkg/stl"
)

// ErrUnsupportedFormat is returned for files the kernel cannot read
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format identifies an importable file type
type Format int

const (
	FormatUnknown Format = iota
	FormatSTL
	FormatSTEP
	FormatSCAD
)

// DetectFormat maps a file extension to a format
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL
	case ".step", ".stp":
		return FormatSTEP
	case ".scad":
		return FormatSCAD
	}
	return FormatUnknown
}

// Importer loads shapes from disk
type Importer struct {
	Options Options
	Logger  *zap.Logger
}

// NewImporter creates an importer with the given segmentation options
func NewImporter(opts Options, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{Options: opts, Logger: logger}
}

// Import reads an STL, STEP or OpenSCAD file into a shape. Nothing is
// returned unless the whole file loaded.
func (im *Importer) Import(ctx context.Context, path string) (*Shape, error) {
	var (
		shape *Shape
		err   error
	)
	switch DetectFormat(path) {
	case FormatSTL:
		shape, err = im.importSTL(path)
	case FormatSTEP:
		shape, err = ReadSTEP(path)
	case FormatSCAD:
		shape, err = im.importSCAD(ctx, path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}

	shape.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	shape.Source = path
	im.Logger.Debug("imported shape",
		zap.String("path", path),
		zap.Int("faces", shape.FaceCount()),
		zap.Int("triangles", shape.TriangleCount()))
	return shape, nil
}

func (im *Importer) importSTL(path string) (*Shape, error) {
	model, err := stl.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if n := model.DropDegenerate(0); n > 0 {
		im.Logger.Debug("dropped degenerate triangles", zap.String("path", path), zap.Int("count", n))
	}
	return FromModel(model, im.Options), nil
}

func (im *Importer) importSCAD(ctx context.Context, path string) (*Shape, error) {
	tmpDir, err := os.MkdirTemp("", "facelabel-scad-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	output := filepath.Join(tmpDir, "model.stl")
	renderer := openscad.NewRenderer(filepath.Dir(abs), im.Logger)
	if err := renderer.RenderToSTL(ctx, abs, output); err != nil {
		return nil, err
	}
	return im.importSTL(output)
}

// Import reads a file with default options
func Import(ctx context.Context, path string) (*Shape, error) {
	return NewImporter(DefaultOptions(), nil).Import(ctx, path)
}
