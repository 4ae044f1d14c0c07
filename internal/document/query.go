package document

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/philipparndt/facelabel/internal/filter"
	"github.com/philipparndt/facelabel/pkg/kernel"
)

// Match returns the ordinals of the faces the filter accepts
func (d *Document) Match(f *filter.Filter) ([]int, error) {
	return f.Apply(d.shape, func(face *kernel.Face) string {
		if label, ok := d.LabelOf(face); ok {
			return label.String()
		}
		return ""
	})
}

// SelectWhere selects every face the filter accepts and returns how many
// matched
func (d *Document) SelectWhere(f *filter.Filter) (int, error) {
	matches, err := d.Match(f)
	if err != nil {
		d.sink.Errorf("%v", err)
		return 0, err
	}
	if len(matches) == 0 {
		d.sink.Warnf("No face matches %s", f)
		return 0, nil
	}

	var errs []error
	for _, i := range matches {
		errs = append(errs, d.SelectOrdinal(i))
	}
	d.sink.Infof("%d face(s) match %s", len(matches), f)
	return len(matches), errors.Join(errs...)
}

// DefaultExportPath proposes <name>_labeled.step next to the source
func DefaultExportPath(source string) string {
	ext := filepath.Ext(source)
	return strings.TrimSuffix(source, ext) + "_labeled.step"
}
