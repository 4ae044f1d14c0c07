package step

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Write encodes the file in Part 21 syntax
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("ISO-10303-21;\nHEADER;\n")
	for _, p := range f.Header {
		writePart(bw, p)
		bw.WriteString(";\n")
	}
	bw.WriteString("ENDSEC;\nDATA;\n")

	for _, e := range f.Entities() {
		bw.WriteByte('#')
		bw.WriteString(strconv.Itoa(e.ID))
		bw.WriteByte('=')
		if e.IsComplex() {
			bw.WriteByte('(')
			for _, p := range e.Parts {
				writePart(bw, p)
			}
			bw.WriteByte(')')
		} else {
			writePart(bw, e.Parts[0])
		}
		bw.WriteString(";\n")
	}

	bw.WriteString("ENDSEC;\nEND-ISO-10303-21;\n")
	return bw.Flush()
}

func writePart(bw *bufio.Writer, p Part) {
	var sb strings.Builder
	sb.WriteString(p.Type)
	sb.WriteByte('(')
	for i, v := range p.Params {
		if i > 0 {
			sb.WriteByte(',')
		}
		writeValue(&sb, v)
	}
	sb.WriteByte(')')
	bw.WriteString(sb.String())
}

// Stamp fills the FILE_NAME timestamp and originating system
func (f *File) Stamp(at time.Time, system string) {
	for i, p := range f.Header {
		if p.Type != "FILE_NAME" || len(p.Params) < 7 {
			continue
		}
		f.Header[i].Params[1] = String(at.UTC().Format("2006-01-02T15:04:05"))
		f.Header[i].Params[4] = String(system)
		f.Header[i].Params[5] = String(system)
	}
}

// WriteFile writes the file atomically: the content goes to a temporary
// file in the destination directory which is then renamed into place, so a
// failed write never leaves a truncated file behind.
func (f *File) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
