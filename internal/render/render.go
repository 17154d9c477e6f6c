// Package render expands parsed templates against an environment of
// identifiers, spec fields and enabled features. Rendering is pure.
package render

import (
	"strconv"
	"strings"
)

// Item is one element of a list, addressed by field name inside an each
// block or a join.
type Item map[string]string

// Env is everything a template may reference.
//
// Values holds dotted scalar paths ("ident.module_name", "sig.awvalid").
// Lists holds iterable collections ("signals.output", "scenarios").
// Features holds the enabled feature flags; Vocabulary holds every feature
// the catalog defines, so a condition on an unknown feature can be reported.
type Env struct {
	Values     map[string]string
	Lists      map[string][]Item
	Features   map[string]bool
	Vocabulary map[string]bool
}

type frame struct {
	name  string
	item  Item
	index int
	count int
}

func (f frame) field(name string) (string, bool) {
	if v, ok := f.item[name]; ok {
		return v, true
	}
	switch name {
	case "index":
		return strconv.Itoa(f.index), true
	case "first":
		return strconv.FormatBool(f.index == 0), true
	case "last":
		return strconv.FormatBool(f.index == f.count-1), true
	}
	return "", false
}

type state struct {
	tmpl   string
	env    Env
	frames []frame
	out    strings.Builder
}

// Render expands t against env. The first unresolved reference aborts
// rendering with an UnresolvedPlaceholderError.
func Render(t *Template, env Env) (string, error) {
	s := &state{tmpl: t.name, env: env}
	if err := s.walk(t.nodes); err != nil {
		return "", err
	}
	return s.out.String(), nil
}

// Render is shorthand for Render(t, env).
func (t *Template) Render(env Env) (string, error) {
	return Render(t, env)
}

func (s *state) unresolved(path string, line int) error {
	return &UnresolvedPlaceholderError{Placeholder: path, Template: s.tmpl, Line: line}
}

func (s *state) walk(nodes []node) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			s.out.WriteString(n.text)
		case valueNode:
			v, ok := s.lookup(n.path)
			if !ok {
				return s.unresolved(n.path, n.line)
			}
			s.out.WriteString(v)
		case ifNode:
			ok, err := s.truth(n.path, n.line)
			if err != nil {
				return err
			}
			branch := n.els
			if ok != n.negate {
				branch = n.then
			}
			if err := s.walk(branch); err != nil {
				return err
			}
		case eachNode:
			items, ok := s.env.Lists[n.list]
			if !ok {
				return s.unresolved(n.list, n.line)
			}
			for i, it := range items {
				s.frames = append(s.frames, frame{name: n.as, item: it, index: i, count: len(items)})
				err := s.walk(n.body)
				s.frames = s.frames[:len(s.frames)-1]
				if err != nil {
					return err
				}
			}
		case joinNode:
			if err := s.join(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// frameFor returns the innermost loop frame bound to name.
func (s *state) frameFor(name string) (frame, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if s.frames[i].name == name {
			return s.frames[i], true
		}
	}
	return frame{}, false
}

func (s *state) lookup(path string) (string, bool) {
	head, rest, dotted := strings.Cut(path, ".")
	if f, ok := s.frameFor(head); ok {
		if !dotted {
			return "", false
		}
		return f.field(rest)
	}
	v, ok := s.env.Values[path]
	return v, ok
}

func (s *state) truth(path string, line int) (bool, error) {
	head, rest, dotted := strings.Cut(path, ".")
	if f, ok := s.frameFor(head); ok && dotted {
		v, ok := f.field(rest)
		if !ok {
			return false, s.unresolved(path, line)
		}
		return v != "" && v != "false" && v != "0", nil
	}
	if head == "feature" && dotted {
		if !s.env.Vocabulary[rest] {
			return false, s.unresolved(path, line)
		}
		return s.env.Features[rest], nil
	}
	if items, ok := s.env.Lists[path]; ok {
		return len(items) > 0, nil
	}
	if v, ok := s.env.Values[path]; ok {
		return v != "" && v != "false" && v != "0", nil
	}
	return false, s.unresolved(path, line)
}

// join resolves "list.field" by the longest list name that prefixes path.
func (s *state) join(n joinNode) error {
	parts := strings.Split(n.path, ".")
	for i := len(parts) - 1; i >= 1; i-- {
		items, ok := s.env.Lists[strings.Join(parts[:i], ".")]
		if !ok {
			continue
		}
		field := strings.Join(parts[i:], ".")
		vals := make([]string, 0, len(items))
		for _, it := range items {
			v, ok := it[field]
			if !ok {
				return s.unresolved(n.path, n.line)
			}
			vals = append(vals, v)
		}
		s.out.WriteString(strings.Join(vals, n.sep))
		return nil
	}
	return s.unresolved(n.path, n.line)
}
