// Package faceid derives stable identities for faces of a shape.
//
// An Identity pairs the face's position in the shape's enumeration with a
// fingerprint of its geometry. Enumerating an unmodified shape again gives
// the same identities, while any change to a face's triangles changes its
// fingerprint, so stale references fail to match instead of silently
// pointing at a different face.
package faceid

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/philipparndt/facelabel/pkg/kernel"
)

// Quantum is the grid coordinates are snapped to before hashing
const Quantum = 1e-6

// namespace scopes the name-based fingerprints
var namespace = uuid.MustParse("4f0c9a6e-2b1d-5c8e-9a7f-3d6b1e0c4a21")

// Identity is the comparable key of a face
type Identity struct {
	Ordinal     int
	Fingerprint uuid.UUID
}

// String returns the raw display form, e.g. F0003:1b4e28ba
func (id Identity) String() string {
	return fmt.Sprintf("F%04d:%s", id.Ordinal, id.Fingerprint.String()[:8])
}

// IsZero reports whether the identity is unset
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Fingerprint hashes a face's quantized triangle coordinates
func Fingerprint(face *kernel.Face) uuid.UUID {
	buf := make([]byte, 0, len(face.Triangles)*9*8)
	for _, t := range face.Triangles {
		for _, v := range t.Vertices() {
			for _, c := range v.Quantize(Quantum) {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(c))
			}
		}
	}
	return uuid.NewSHA1(namespace, buf)
}

// Compute returns the identity of the face at ordinal. It is a pure
// function of its arguments.
func Compute(ordinal int, face *kernel.Face) Identity {
	return Identity{Ordinal: ordinal, Fingerprint: Fingerprint(face)}
}

// Resolver computes identities for the faces of one shape and caches them
type Resolver struct {
	shape *kernel.Shape

	mu    sync.Mutex
	cache map[*kernel.Face]Identity
	faces map[Identity]*kernel.Face
}

// NewResolver enumerates shape once and indexes every face
func NewResolver(shape *kernel.Shape) *Resolver {
	r := &Resolver{
		shape: shape,
		cache: make(map[*kernel.Face]Identity),
		faces: make(map[Identity]*kernel.Face),
	}
	for i, f := range shape.Faces() {
		id := Compute(i, f)
		r.cache[f] = id
		r.faces[id] = f
	}
	return r
}

// IdentityOf returns the identity of a face. Faces of the resolver's shape
// are answered from the cache; anything else is located by enumeration.
func (r *Resolver) IdentityOf(face *kernel.Face) Identity {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.cache[face]; ok {
		return id
	}
	ordinal, ok := r.shape.IndexOf(face)
	if !ok {
		ordinal = -1
	}
	id := Compute(ordinal, face)
	if ok {
		r.cache[face] = id
		r.faces[id] = face
	}
	return id
}

// Face returns the face with the given identity
func (r *Resolver) Face(id Identity) (*kernel.Face, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.faces[id]
	return f, ok
}

// At returns the identity and face at ordinal i
func (r *Resolver) At(i int) (Identity, *kernel.Face, bool) {
	face, ok := r.shape.Face(i)
	if !ok {
		return Identity{}, nil, false
	}
	return r.IdentityOf(face), face, true
}

// Identities returns all identities in enumeration order
func (r *Resolver) Identities() []Identity {
	faces := r.shape.Faces()
	ids := make([]Identity, len(faces))
	for i, f := range faces {
		ids[i] = r.IdentityOf(f)
	}
	return ids
}

// ByFingerprint returns the identity with the given fingerprint
func (r *Resolver) ByFingerprint(fp uuid.UUID) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.faces {
		if id.Fingerprint == fp {
			return id, true
		}
	}
	return Identity{}, false
}

// Shape returns the resolved shape
func (r *Resolver) Shape() *kernel.Shape {
	return r.shape
}
