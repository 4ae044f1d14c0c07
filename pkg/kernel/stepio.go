package kernel

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/philipparndt/facelabel/pkg/geometry"
	"github.com/philipparndt/facelabel/pkg/step"
	"github.com/philipparndt/facelabel/version"
)

// Schema is the application protocol written to exported files
const Schema = "AP242_MANAGED_MODEL_BASED_3D_ENGINEERING_MIM_LF"

// ErrNoGeometry is returned for STEP files without tessellated faces
var ErrNoGeometry = errors.New("no tessellated faces in STEP file")

// StepWriter transfers shapes into a STEP exchange structure. After
// Transfer, FindEntity maps every face of the shape to the entity that
// represents it, so callers can attach names before writing.
type StepWriter struct {
	file   *step.File
	shape  *Shape
	finder map[*Face]int
}

// NewStepWriter creates an empty writer
func NewStepWriter() *StepWriter {
	return &StepWriter{finder: make(map[*Face]int)}
}

// Transfer builds the data section for shape
func (w *StepWriter) Transfer(shape *Shape) error {
	if shape == nil || shape.FaceCount() == 0 {
		return fmt.Errorf("transfer: %w", ErrNoGeometry)
	}

	name := shape.Name
	if name == "" {
		name = "shape"
	}
	f := step.NewFile(name+".step", Schema)
	w.file = f
	w.shape = shape
	w.finder = make(map[*Face]int)

	appContext := f.Add("APPLICATION_CONTEXT", step.String("core data for automotive mechanical design processes"))
	f.Add("APPLICATION_PROTOCOL_DEFINITION", step.String("international standard"),
		step.String("ap242_managed_model_based_3d_engineering"), step.Int(2014), step.Ref(appContext))
	productContext := f.Add("PRODUCT_CONTEXT", step.String(""), step.Ref(appContext), step.String("mechanical"))
	product := f.Add("PRODUCT", step.String(name), step.String(name), step.String(""), step.Refs(productContext))
	formation := f.Add("PRODUCT_DEFINITION_FORMATION", step.String(""), step.String(""), step.Ref(product))
	defContext := f.Add("PRODUCT_DEFINITION_CONTEXT", step.String("part definition"), step.Ref(appContext), step.String("design"))
	definition := f.Add("PRODUCT_DEFINITION", step.String("design"), step.String(""), step.Ref(formation), step.Ref(defContext))
	defShape := f.Add("PRODUCT_DEFINITION_SHAPE", step.String(""), step.String(""), step.Ref(definition))

	lengthUnit := f.AddComplex(
		step.Part{Type: "LENGTH_UNIT"},
		step.Part{Type: "NAMED_UNIT", Params: []step.Value{step.Derived()}},
		step.Part{Type: "SI_UNIT", Params: []step.Value{step.Enum("MILLI"), step.Enum("METRE")}},
	)
	angleUnit := f.AddComplex(
		step.Part{Type: "NAMED_UNIT", Params: []step.Value{step.Derived()}},
		step.Part{Type: "PLANE_ANGLE_UNIT"},
		step.Part{Type: "SI_UNIT", Params: []step.Value{step.Unset(), step.Enum("RADIAN")}},
	)
	solidAngleUnit := f.AddComplex(
		step.Part{Type: "NAMED_UNIT", Params: []step.Value{step.Derived()}},
		step.Part{Type: "SI_UNIT", Params: []step.Value{step.Unset(), step.Enum("STERADIAN")}},
		step.Part{Type: "SOLID_ANGLE_UNIT"},
	)
	uncertainty := f.Add("UNCERTAINTY_MEASURE_WITH_UNIT",
		step.Typed("LENGTH_MEASURE", step.Real(1e-7)), step.Ref(lengthUnit),
		step.String("distance_accuracy_value"), step.String("confusion accuracy"))
	context := f.AddComplex(
		step.Part{Type: "GEOMETRIC_REPRESENTATION_CONTEXT", Params: []step.Value{step.Int(3)}},
		step.Part{Type: "GLOBAL_UNCERTAINTY_ASSIGNED_CONTEXT", Params: []step.Value{step.Refs(uncertainty)}},
		step.Part{Type: "GLOBAL_UNIT_ASSIGNED_CONTEXT", Params: []step.Value{step.Refs(lengthUnit, angleUnit, solidAngleUnit)}},
		step.Part{Type: "REPRESENTATION_CONTEXT", Params: []step.Value{step.String("Context #1"), step.String("3D Context with UNIT and UNCERTAINTY")}},
	)

	faceIDs := make([]int, 0, shape.FaceCount())
	for _, face := range shape.Faces() {
		id := w.transferFace(face)
		w.finder[face] = id
		faceIDs = append(faceIDs, id)
	}

	shell := f.Add("TESSELLATED_SHELL", step.String(""), step.Refs(faceIDs...), step.Unset())
	rep := f.Add("TESSELLATED_SHAPE_REPRESENTATION", step.String(name), step.Refs(shell), step.Ref(context))
	f.Add("SHAPE_DEFINITION_REPRESENTATION", step.Ref(defShape), step.Ref(rep))
	return nil
}

// transferFace writes a COORDINATES_LIST and TRIANGULATED_FACE pair
func (w *StepWriter) transferFace(face *Face) int {
	index := make(map[geometry.Vector3]int64)
	var coords []step.Value
	triangles := make([]step.Value, 0, len(face.Triangles))
	for _, t := range face.Triangles {
		var tri [3]int64
		for i, v := range t.Vertices() {
			idx, ok := index[v]
			if !ok {
				coords = append(coords, step.Reals(v.X, v.Y, v.Z))
				idx = int64(len(coords))
				index[v] = idx
			}
			tri[i] = idx
		}
		triangles = append(triangles, step.Ints(tri[0], tri[1], tri[2]))
	}

	coordList := w.file.Add("COORDINATES_LIST", step.String(""), step.Int(int64(len(coords))), step.List(coords...))

	// A single normal is allowed for planar faces, none otherwise
	normals := step.List()
	if face.Surface == SurfacePlane {
		normals = step.List(step.Reals(face.Normal.X, face.Normal.Y, face.Normal.Z))
	}
	return w.file.Add("TRIANGULATED_FACE",
		step.String(""),
		step.Ref(coordList),
		step.Int(int64(len(coords))),
		normals,
		step.Unset(),
		step.List(),
		step.List(triangles...),
	)
}

// Shape returns the transferred shape
func (w *StepWriter) Shape() *Shape {
	return w.shape
}

// FindEntity returns the entity a face was transferred to
func (w *StepWriter) FindEntity(face *Face) (*step.Entity, bool) {
	if w.file == nil {
		return nil, false
	}
	id, ok := w.finder[face]
	if !ok {
		return nil, false
	}
	return w.file.Entity(id)
}

// SetName names the entity of a transferred face
func (w *StepWriter) SetName(face *Face, name string) error {
	entity, ok := w.FindEntity(face)
	if !ok {
		return fmt.Errorf("face not transferred")
	}
	return entity.SetName(name)
}

// File exposes the underlying exchange structure
func (w *StepWriter) File() *step.File {
	return w.file
}

// Write stores the transferred shape at path
func (w *StepWriter) Write(path string) error {
	if w.file == nil {
		return fmt.Errorf("write %s: nothing transferred", path)
	}
	w.file.Header[1].Params[0] = step.String(filepath.Base(path))
	w.file.Stamp(time.Now(), version.System())
	return w.file.WriteFile(path)
}

// ReadSTEP loads the tessellated faces of a STEP file. Faces keep their
// entity names and come back in entity order, which is the order the
// writer emitted them in.
func ReadSTEP(path string) (*Shape, error) {
	file, err := step.ParseFile(path)
	if err != nil {
		return nil, err
	}
	shape, err := shapeFromFile(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	shape.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	shape.Source = path
	return shape, nil
}

func shapeFromFile(file *step.File) (*Shape, error) {
	var faces []*Face
	for _, e := range file.ByType("TRIANGULATED_FACE") {
		face, err := readFace(file, e)
		if err != nil {
			return nil, err
		}
		faces = append(faces, face)
	}
	if len(faces) == 0 {
		return nil, ErrNoGeometry
	}
	return NewShape("", faces), nil
}

func readFace(file *step.File, e *step.Entity) (*Face, error) {
	params := e.Params()
	if len(params) < 7 {
		return nil, fmt.Errorf("entity #%d: TRIANGULATED_FACE needs 7 attributes, got %d", e.ID, len(params))
	}
	name, _ := params[0].AsString()

	coordRef, ok := params[1].AsRef()
	if !ok {
		return nil, fmt.Errorf("entity #%d: coordinates is not a reference", e.ID)
	}
	points, err := readCoordinates(file, coordRef)
	if err != nil {
		return nil, fmt.Errorf("entity #%d: %w", e.ID, err)
	}

	// pnindex maps face-local indices to coordinate list positions
	var pnindex []int64
	if list, ok := params[5].AsList(); ok {
		for _, v := range list {
			n, ok := v.AsInt()
			if !ok {
				return nil, fmt.Errorf("entity #%d: invalid pnindex", e.ID)
			}
			pnindex = append(pnindex, n)
		}
	}
	lookup := func(i int64) (geometry.Vector3, error) {
		if len(pnindex) > 0 {
			if i < 1 || int(i) > len(pnindex) {
				return geometry.Vector3{}, fmt.Errorf("index %d out of range", i)
			}
			i = pnindex[i-1]
		}
		if i < 1 || int(i) > len(points) {
			return geometry.Vector3{}, fmt.Errorf("index %d out of range", i)
		}
		return points[i-1], nil
	}

	list, ok := params[6].AsList()
	if !ok {
		return nil, fmt.Errorf("entity #%d: triangles is not a list", e.ID)
	}
	face := &Face{Name: name, Triangles: make([]geometry.Triangle, 0, len(list))}
	for _, tv := range list {
		corners, ok := tv.AsList()
		if !ok || len(corners) != 3 {
			return nil, fmt.Errorf("entity #%d: triangle needs 3 indices", e.ID)
		}
		var v [3]geometry.Vector3
		for i, c := range corners {
			n, ok := c.AsInt()
			if !ok {
				return nil, fmt.Errorf("entity #%d: invalid triangle index", e.ID)
			}
			if v[i], err = lookup(n); err != nil {
				return nil, fmt.Errorf("entity #%d: %w", e.ID, err)
			}
		}
		t := geometry.NewTriangle(geometry.Vector3{}, v[0], v[1], v[2])
		t.Normal = t.CalculateNormal()
		face.Triangles = append(face.Triangles, t)
	}
	classify(face)
	return face, nil
}

func readCoordinates(file *step.File, id int) ([]geometry.Vector3, error) {
	e, ok := file.Entity(id)
	if !ok || e.Type() != "COORDINATES_LIST" {
		return nil, fmt.Errorf("#%d is not a COORDINATES_LIST", id)
	}
	params := e.Params()
	if len(params) < 3 {
		return nil, fmt.Errorf("#%d: COORDINATES_LIST needs 3 attributes", id)
	}
	list, ok := params[2].AsList()
	if !ok {
		return nil, fmt.Errorf("#%d: position_coords is not a list", id)
	}
	points := make([]geometry.Vector3, 0, len(list))
	for _, pv := range list {
		xyz, ok := pv.AsList()
		if !ok || len(xyz) != 3 {
			return nil, fmt.Errorf("#%d: point needs 3 coordinates", id)
		}
		var c [3]float64
		for i, v := range xyz {
			if c[i], ok = v.AsFloat(); !ok {
				return nil, fmt.Errorf("#%d: coordinate is not a number", id)
			}
		}
		points = append(points, geometry.NewVector3(c[0], c[1], c[2]))
	}
	return points, nil
}
