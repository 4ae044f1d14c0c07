package step

import (
	"fmt"
	"sort"
	"strings"
)

// Part is one simple record of an entity instance. Complex instances such
// as #5=(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.)) have several.
type Part struct {
	Type   string
	Params []Value
}

// Entity is a numbered instance in the DATA section
type Entity struct {
	ID    int
	Parts []Part
}

// Type returns the entity type name. Complex instances report their
// record types joined with '+' in file order.
func (e *Entity) Type() string {
	if len(e.Parts) == 1 {
		return e.Parts[0].Type
	}
	names := make([]string, len(e.Parts))
	for i, p := range e.Parts {
		names[i] = p.Type
	}
	return strings.Join(names, "+")
}

// IsComplex reports whether the instance has more than one record
func (e *Entity) IsComplex() bool {
	return len(e.Parts) > 1
}

// Params returns the parameters of a simple instance
func (e *Entity) Params() []Value {
	if len(e.Parts) == 0 {
		return nil
	}
	return e.Parts[0].Params
}

// Param returns parameter i of a simple instance
func (e *Entity) Param(i int) (Value, bool) {
	params := e.Params()
	if i < 0 || i >= len(params) {
		return Value{}, false
	}
	return params[i], true
}

// Record returns the record of the given type from a complex instance
func (e *Entity) Record(typ string) (Part, bool) {
	for _, p := range e.Parts {
		if p.Type == typ {
			return p, true
		}
	}
	return Part{}, false
}

// Name returns the leading string attribute most representation items use
// as their name.
func (e *Entity) Name() (string, bool) {
	v, ok := e.Param(0)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// SetName replaces the leading string attribute
func (e *Entity) SetName(name string) error {
	if e.IsComplex() {
		return fmt.Errorf("entity #%d: cannot name a complex instance", e.ID)
	}
	if _, ok := e.Name(); !ok {
		return fmt.Errorf("entity #%d (%s): first attribute is not a name", e.ID, e.Type())
	}
	e.Parts[0].Params[0] = String(name)
	return nil
}

// File is an in-memory exchange structure
type File struct {
	Header []Part
	data   map[int]*Entity
	nextID int
}

// NewFile creates an empty file with the given schema identifiers
func NewFile(name string, schemas ...string) *File {
	schemaValues := make([]Value, len(schemas))
	for i, s := range schemas {
		schemaValues[i] = String(s)
	}
	return &File{
		Header: []Part{
			{Type: "FILE_DESCRIPTION", Params: []Value{List(String("")), String("2;1")}},
			{Type: "FILE_NAME", Params: []Value{
				String(name), String(""), List(String("")), List(String("")),
				String(""), String(""), String(""),
			}},
			{Type: "FILE_SCHEMA", Params: []Value{List(schemaValues...)}},
		},
		data:   make(map[int]*Entity),
		nextID: 1,
	}
}

// Add appends a simple instance and returns its id
func (f *File) Add(typ string, params ...Value) int {
	return f.AddComplex(Part{Type: strings.ToUpper(typ), Params: params})
}

// AddComplex appends an instance built from several records
func (f *File) AddComplex(parts ...Part) int {
	id := f.nextID
	f.nextID++
	f.data[id] = &Entity{ID: id, Parts: parts}
	return id
}

// Entity looks up an instance by id
func (f *File) Entity(id int) (*Entity, bool) {
	e, ok := f.data[id]
	return e, ok
}

// Len returns the number of instances
func (f *File) Len() int {
	return len(f.data)
}

// Entities returns all instances ordered by id
func (f *File) Entities() []*Entity {
	ids := make([]int, 0, len(f.data))
	for id := range f.data {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	entities := make([]*Entity, len(ids))
	for i, id := range ids {
		entities[i] = f.data[id]
	}
	return entities
}

// ByType returns the simple instances of one type ordered by id
func (f *File) ByType(typ string) []*Entity {
	typ = strings.ToUpper(typ)
	var result []*Entity
	for _, e := range f.Entities() {
		if !e.IsComplex() && e.Type() == typ {
			result = append(result, e)
		}
	}
	return result
}

// HeaderRecord returns a header record such as FILE_SCHEMA
func (f *File) HeaderRecord(typ string) (Part, bool) {
	for _, p := range f.Header {
		if p.Type == typ {
			return p, true
		}
	}
	return Part{}, false
}

// Schemas returns the identifiers listed in FILE_SCHEMA
func (f *File) Schemas() []string {
	rec, ok := f.HeaderRecord("FILE_SCHEMA")
	if !ok || len(rec.Params) == 0 {
		return nil
	}
	list, _ := rec.Params[0].AsList()
	var schemas []string
	for _, v := range list {
		if s, ok := v.AsString(); ok {
			schemas = append(schemas, s)
		}
	}
	return schemas
}

func (f *File) add(e *Entity) error {
	if _, exists := f.data[e.ID]; exists {
		return fmt.Errorf("duplicate entity #%d", e.ID)
	}
	f.data[e.ID] = e
	if e.ID >= f.nextID {
		f.nextID = e.ID + 1
	}
	return nil
}
