package stl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/philipparndt/facelabel/pkg/geometry"
)

const asciiTriangle = `solid part
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1 0 0
      vertex 0 1 0
    endloop
  endfacet
endsolid part
`

func TestParseASCII(t *testing.T) {
	model, err := ParseBytes([]byte(asciiTriangle))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if model.Name != "part" {
		t.Errorf("Name failed: expected %q, got %q", "part", model.Name)
	}
	if model.TriangleCount() != 1 {
		t.Fatalf("TriangleCount failed: expected 1, got %d", model.TriangleCount())
	}
	if model.Triangles[0].V2 != geometry.NewVector3(1, 0, 0) {
		t.Errorf("V2 failed: got %v", model.Triangles[0].V2)
	}
}

func TestParseBinaryStartingWithSolid(t *testing.T) {
	var buf bytes.Buffer
	header := make([]byte, 80)
	copy(header, "solid but actually binary")
	buf.Write(header)
	binary.Write(&buf, binary.LittleEndian, uint32(1))
	binary.Write(&buf, binary.LittleEndian, [12]float32{0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 2, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(0))

	model, err := ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if model.TriangleCount() != 1 {
		t.Fatalf("TriangleCount failed: expected 1, got %d", model.TriangleCount())
	}
	if model.Triangles[0].V3 != geometry.NewVector3(0, 2, 0) {
		t.Errorf("V3 failed: got %v", model.Triangles[0].V3)
	}
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad number", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 zero\n"},
		{"two vertices", "solid x\nfacet normal 0 0 1\nouter loop\nvertex 0 0 0\nvertex 1 0 0\nendloop\nendfacet\n"},
		{"truncated binary", "binary-header-too-short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseBytes([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := ParseBytes([]byte("solid empty\nendsolid empty\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestWriteASCIIRoundTrip(t *testing.T) {
	model := NewModel("roundtrip")
	model.AddTriangle(geometry.NewTriangle(
		geometry.NewVector3(0, 0, 1),
		geometry.NewVector3(0.1, 0.2, 0.3),
		geometry.NewVector3(1.5, 0, 0),
		geometry.NewVector3(0, 1e-7, 0),
	))

	path := filepath.Join(t.TempDir(), "roundtrip.stl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteASCII(f, model); err != nil {
		t.Fatalf("WriteASCII failed: %v", err)
	}
	f.Close()

	parsed, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.Triangles[0] != model.Triangles[0] {
		t.Errorf("round trip failed: expected %v, got %v", model.Triangles[0], parsed.Triangles[0])
	}
}

func TestParseMissingFile(t *testing.T) {
	if _, err := Parse(filepath.Join(t.TempDir(), "missing.stl")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDropDegenerate(t *testing.T) {
	m := NewModel("slivers")
	o := geometry.NewVector3(0, 0, 0)
	x := geometry.NewVector3(1, 0, 0)
	y := geometry.NewVector3(0, 1, 0)
	m.AddTriangle(geometry.NewTriangle(geometry.Vector3{}, o, x, y))
	m.AddTriangle(geometry.NewTriangle(geometry.Vector3{}, o, x, x.Mul(2))) // collinear
	m.AddTriangle(geometry.NewTriangle(geometry.Vector3{}, y, y, x))        // repeated vertex

	if n := m.DropDegenerate(0); n != 2 {
		t.Errorf("Expected 2 dropped triangles, got %d", n)
	}
	if m.TriangleCount() != 1 || m.Triangles[0].V3 != y {
		t.Errorf("Expected the valid triangle to remain, got %v", m.Triangles)
	}
}
