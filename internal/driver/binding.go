package driver

import (
	"fmt"

	"github.com/zdyb/wmbusdv/internal/dv"
)

// FieldKind selects how a bound record is rendered into the field map.
type FieldKind int

const (
	// NumericField decodes a scaled double and names the field with the
	// display unit suffix ("total_volume" becomes "total_volume_m3").
	NumericField FieldKind = iota
	// TextField decodes a string value (dates, LVAR text).
	TextField
	// LookupField decodes the raw integer and renders it through a
	// translate table or custom Render function.
	LookupField
)

// FieldBinding declares one named logical field as a query against the
// telegram's field set. Drivers hold a static, ordered table of bindings;
// binding is plain data, evaluated by ApplyBindings.
type FieldBinding struct {
	Name   string
	Kind   FieldKind
	Query  dv.Query
	Unit   dv.Unit // display unit for numeric fields; converted if it differs
	Lookup *dv.TranslateTable
	Render func(uint64) string
}

// ApplyBindings evaluates each binding against the field set in order and
// fills the field map. A query with no matching record leaves its field
// absent; different telegram variants of one device family simply carry
// different subsets.
func ApplyBindings(fs *dv.FieldSet, bindings []FieldBinding, fields map[string]any) {
	for _, b := range bindings {
		rec, ok := fs.Find(b.Query)
		if !ok {
			continue
		}
		switch b.Kind {
		case NumericField:
			v, ok := rec.Double()
			if !ok {
				continue
			}
			unit := b.Unit
			if unit == dv.UnitNone {
				unit = rec.Unit
			} else if unit != rec.Unit {
				conv, err := dv.Convert(v, rec.Unit, unit)
				if err != nil {
					continue
				}
				v = conv
			}
			name := b.Name
			if s := unit.Suffix(); s != "" {
				name += "_" + s
			}
			fields[name] = v
			fs.AddExplanation(rec.DataOffset, fmt.Sprintf("%s (%v %s)", b.Name, v, unit))
		case TextField:
			s, ok := rec.Text()
			if !ok {
				continue
			}
			fields[b.Name] = s
			fs.AddExplanation(rec.DataOffset, fmt.Sprintf("%s (%s)", b.Name, s))
		case LookupField:
			raw, ok := rec.Uint()
			if !ok {
				continue
			}
			var s string
			switch {
			case b.Render != nil:
				s = b.Render(raw)
			case b.Lookup != nil:
				s = b.Lookup.Lookup(raw)
			default:
				s = fmt.Sprintf("%d", raw)
			}
			fields[b.Name] = s
			fs.AddExplanation(rec.DataOffset, fmt.Sprintf("%s (%s)", b.Name, s))
		}
	}
}

// Annotations converts the field set's explanation list into the driver
// Reading form.
func Annotations(fs *dv.FieldSet) []Explanation {
	src := fs.Explanations()
	out := make([]Explanation, len(src))
	for i, e := range src {
		out[i] = Explanation{Offset: e.Offset, Text: e.Text}
	}
	return out
}
