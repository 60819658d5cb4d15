package logging

import (
	"log/slog"
	"slices"
)

const defaultModule = "main"

// field is a leaf attribute with its full group path.
type field struct {
	path  []string
	value slog.Value
}

// scope accumulates the attributes and groups a handler was derived with.
// Attributes are flattened when added, so Handle only has to walk the
// record's own attributes. A top-level "module" attribute is lifted out.
type scope struct {
	module string
	groups []string
	fields []field
}

func (s scope) withAttrs(attrs []slog.Attr) scope {
	out := scope{module: s.module, groups: s.groups, fields: slices.Clip(s.fields)}
	for _, a := range attrs {
		out.add(s.groups, a)
	}
	return out
}

func (s scope) withGroup(name string) scope {
	if name == "" {
		return s
	}
	s.groups = append(slices.Clip(s.groups), name)
	return s
}

// resolve returns the module and every field for r.
func (s scope) resolve(r slog.Record) (string, []field) {
	out := scope{module: s.module, fields: slices.Clip(s.fields)}
	r.Attrs(func(a slog.Attr) bool {
		out.add(s.groups, a)
		return true
	})
	if out.module == "" {
		out.module = defaultModule
	}
	return out.module, out.fields
}

func (s *scope) add(groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range a.Value.Group() {
			s.add(inner, ga)
		}
		return
	}
	if a.Key == "module" && len(groups) == 0 {
		s.module = a.Value.String()
		return
	}
	s.fields = append(s.fields, field{path: append(slices.Clip(groups), a.Key), value: a.Value})
}
