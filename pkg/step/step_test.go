package step

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sample = `ISO-10303-21;
HEADER;
/* written by hand */
FILE_DESCRIPTION(('demo'),'2;1');
FILE_NAME('part.step','2024-01-01T00:00:00',(''),(''),'','','');
FILE_SCHEMA(('AP242_MANAGED_MODEL_BASED_3D_ENGINEERING_MIM_LF'));
ENDSEC;
DATA;
#1=CARTESIAN_POINT('origin',(0.,0.,1.5E-03));
#2=TRIANGULATED_FACE('Hole',#3,3,((0.,0.,1.)),$,(1,2,3),((1,2,3)));
#3=COORDINATES_LIST('',3,((0.,0.,0.),(1.,0.,0.),(0.,1.,0.)));
#4=(LENGTH_UNIT()NAMED_UNIT(*)SI_UNIT(.MILLI.,.METRE.));
#5=UNCERTAINTY_MEASURE_WITH_UNIT(LENGTH_MEASURE(1.E-07),#4,'distance_accuracy_value','');
#6=PRODUCT('it''s','\X2\00E9\X0\t\\','',());
ENDSEC;
END-ISO-10303-21;
`

func TestParseSample(t *testing.T) {
	file, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if file.Len() != 6 {
		t.Fatalf("Expected 6 entities, got %d", file.Len())
	}
	if got := file.Schemas(); len(got) != 1 || got[0] != "AP242_MANAGED_MODEL_BASED_3D_ENGINEERING_MIM_LF" {
		t.Errorf("Unexpected schemas %v", got)
	}

	point, ok := file.Entity(1)
	if !ok {
		t.Fatal("Entity #1 missing")
	}
	coords, _ := point.Params()[1].AsList()
	if z, _ := coords[2].AsFloat(); z != 1.5e-3 {
		t.Errorf("Expected z=0.0015, got %v", z)
	}

	faces := file.ByType("triangulated_face")
	if len(faces) != 1 {
		t.Fatalf("Expected 1 TRIANGULATED_FACE, got %d", len(faces))
	}
	if name, _ := faces[0].Name(); name != "Hole" {
		t.Errorf("Expected face name Hole, got %q", name)
	}
	if ref, _ := faces[0].Params()[1].AsRef(); ref != 3 {
		t.Errorf("Expected coordinates ref #3, got #%d", ref)
	}

	unit, _ := file.Entity(4)
	if !unit.IsComplex() || unit.Type() != "LENGTH_UNIT+NAMED_UNIT+SI_UNIT" {
		t.Errorf("Unexpected complex instance %q", unit.Type())
	}
	si, ok := unit.Record("SI_UNIT")
	if !ok || si.Params[0].Kind != KindEnum || si.Params[0].Str != "MILLI" {
		t.Errorf("Unexpected SI_UNIT record %+v", si)
	}

	accuracy, _ := file.Entity(5)
	if v, _ := accuracy.Params()[0].AsFloat(); v != 1e-7 {
		t.Errorf("Expected typed measure 1e-7, got %v", v)
	}

	product, _ := file.Entity(6)
	if name, _ := product.Name(); name != "it's" {
		t.Errorf("Expected doubled apostrophe to decode, got %q", name)
	}
	if desc, _ := product.Params()[1].AsString(); desc != "ét\\" {
		t.Errorf("Expected escapes to decode, got %q", desc)
	}
}

func TestRoundTrip(t *testing.T) {
	file := NewFile("roundtrip.step", "AP242_MANAGED_MODEL_BASED_3D_ENGINEERING_MIM_LF")
	coords := file.Add("COORDINATES_LIST", String(""), Int(3),
		List(Reals(0, 0, 0), Reals(1, 0, 0), Reals(0, 1, 0)))
	face := file.Add("TRIANGULATED_FACE", String(""), Ref(coords), Int(3),
		List(Reals(0, 0, 1)), Unset(), Ints(1, 2, 3), List(Ints(1, 2, 3)))
	file.AddComplex(
		Part{Type: "LENGTH_UNIT"},
		Part{Type: "NAMED_UNIT", Params: []Value{Derived()}},
		Part{Type: "SI_UNIT", Params: []Value{Enum("milli"), Enum("metre")}},
	)

	entity, _ := file.Entity(face)
	if err := entity.SetName("Wall + Hole's ü"); err != nil {
		t.Fatalf("SetName failed: %v", err)
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse of written file failed: %v\n%s", err, buf.String())
	}
	if parsed.Len() != 3 {
		t.Fatalf("Expected 3 entities, got %d", parsed.Len())
	}
	again, _ := parsed.Entity(face)
	if name, _ := again.Name(); name != "Wall + Hole's ü" {
		t.Errorf("Expected name to round-trip, got %q", name)
	}
	if again.Params()[4].Kind != KindUnset {
		t.Errorf("Expected $ to round-trip, got %v", again.Params()[4])
	}
}

func TestFormatReal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1."},
		{0, "0."},
		{-2.5, "-2.5"},
		{1e-7, "1.E-07"},
		{1.5e-3, "0.0015"},
	}
	for _, tt := range tests {
		if got := formatReal(tt.in); got != tt.want {
			t.Errorf("formatReal(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing magic", "HEADER;\nENDSEC;\n"},
		{"unterminated string", "ISO-10303-21;\nHEADER;\nFILE_NAME('abc);\n"},
		{"bad instance", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#=FOO();\nENDSEC;\nEND-ISO-10303-21;\n"},
		{"duplicate id", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=FOO();\n#1=BAR();\nENDSEC;\nEND-ISO-10303-21;\n"},
		{"truncated", "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=FOO(1,"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("Expected ErrSyntax, got %v", err)
			}
		})
	}
}

func TestParseErrorLine(t *testing.T) {
	input := "ISO-10303-21;\nHEADER;\nENDSEC;\nDATA;\n#1=FOO(1);\n#2=BAR(1 2);\n"
	_, err := Parse(strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "line 6") {
		t.Errorf("Expected error on line 6, got %v", err)
	}
}

func TestSetNameRejectsUnnamed(t *testing.T) {
	file := NewFile("x.step", "CONFIG_CONTROL_DESIGN")
	id := file.Add("DIRECTION", Reals(0, 0, 1))
	e, _ := file.Entity(id)
	if err := e.SetName("Hole"); err == nil {
		t.Error("Expected error naming an entity without a name attribute")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.step")

	file := NewFile("out.step", "CONFIG_CONTROL_DESIGN")
	file.Add("CARTESIAN_POINT", String(""), Reals(1, 2, 3))
	if err := file.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if parsed.Len() != 1 {
		t.Errorf("Expected 1 entity, got %d", parsed.Len())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the output file in %s, got %d entries", dir, len(entries))
	}

	if err := file.WriteFile(filepath.Join(dir, "missing", "out.step")); err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}
