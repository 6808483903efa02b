package catalog

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/orneryd/graphexec/pkg/binding"
	"github.com/orneryd/graphexec/pkg/qerr"
)

// SpecKind distinguishes the shapes of a node or relationship specifier.
type SpecKind int

const (
	SpecWildcard SpecKind = iota + 1
	SpecNames
	SpecProperties
	SpecQuery
)

// WildcardToken selects every label or relationship type.
const WildcardToken = "*"

// Spec is a parsed node or relationship specifier.
type Spec struct {
	Kind SpecKind
	// Names lists labels or types for SpecNames and SpecProperties.
	Names []string
	// Properties maps each name to its selected property keys (SpecProperties).
	Properties map[string][]string
	// Query holds the query text for SpecQuery.
	Query string
	// single records that Names came from a bare string.
	single bool
}

// Wildcard returns the "*" specifier.
func Wildcard() Spec { return Spec{Kind: SpecWildcard} }

// Names returns a specifier selecting the given labels or types.
func Names(names ...string) Spec {
	return Spec{Kind: SpecNames, Names: names, single: len(names) == 1}
}

// WithProperties returns a specifier selecting labels or types together with
// the property keys to capture for each.
func WithProperties(props map[string][]string) Spec {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)
	return Spec{Kind: SpecProperties, Names: names, Properties: props}
}

// Query returns a subquery specifier.
func Query(text string) Spec { return Spec{Kind: SpecQuery, Query: text} }

// Display renders the canonical display string of the specifier.
func (s Spec) Display() string {
	switch s.Kind {
	case SpecWildcard:
		return WildcardToken
	case SpecNames:
		if s.single {
			return s.Names[0]
		}
		data, _ := json.Marshal(s.Names)
		return string(data)
	case SpecProperties:
		props := make(map[string][]string, len(s.Properties))
		for k, v := range s.Properties {
			if v == nil {
				v = []string{}
			}
			props[k] = v
		}
		data, _ := json.Marshal(props)
		return string(data)
	case SpecQuery:
		return s.Query
	}
	return ""
}

// validate rejects empty specifiers.
func (s Spec) validate(op, what string) error {
	switch s.Kind {
	case SpecWildcard:
		return nil
	case SpecNames:
		if len(s.Names) == 0 {
			return qerr.Invalid(op, "%s projection must not be an empty list", what)
		}
		for _, n := range s.Names {
			if strings.TrimSpace(n) == "" {
				return qerr.Invalid(op, "%s projection must not contain empty names", what)
			}
		}
	case SpecProperties:
		if len(s.Properties) == 0 {
			return qerr.Invalid(op, "%s projection must not be an empty map", what)
		}
		for n := range s.Properties {
			if strings.TrimSpace(n) == "" {
				return qerr.Invalid(op, "%s projection must not contain empty names", what)
			}
		}
	case SpecQuery:
		if strings.TrimSpace(s.Query) == "" {
			return qerr.Invalid(op, "%s projection must not be empty", what)
		}
	default:
		return qerr.Invalid(op, "%s projection is missing", what)
	}
	return nil
}

// parseSpec converts a procedure argument into a Spec. Strings that look like
// queries are returned as names here; the caller decides on subquery mode once
// both specifiers are known.
func parseSpec(op, what string, v binding.Value) (Spec, error) {
	switch v.Type() {
	case binding.TypeString:
		s, _ := v.AsString()
		if strings.TrimSpace(s) == "" {
			return Spec{}, qerr.Invalid(op, "%s projection must not be empty", what)
		}
		if strings.TrimSpace(s) == WildcardToken {
			return Wildcard(), nil
		}
		return Names(s), nil
	case binding.TypeList:
		items := v.Items()
		if len(items) == 0 {
			return Spec{}, qerr.Invalid(op, "%s projection must not be an empty list", what)
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.AsString()
			if !ok || item.Type() != binding.TypeString {
				return Spec{}, qerr.Invalid(op, "%s projection list must contain strings, got %s", what, item.Type())
			}
			names = append(names, s)
		}
		spec := Spec{Kind: SpecNames, Names: names}
		return spec, spec.validate(op, what)
	case binding.TypeMap:
		entries := v.Entries()
		if len(entries) == 0 {
			return Spec{}, qerr.Invalid(op, "%s projection must not be an empty map", what)
		}
		props := make(map[string][]string, len(entries))
		for name, sel := range entries {
			keys, err := propertyList(op, what, name, sel)
			if err != nil {
				return Spec{}, err
			}
			props[name] = keys
		}
		spec := WithProperties(props)
		return spec, spec.validate(op, what)
	}
	return Spec{}, qerr.Invalid(op, "%s projection must be a string, list or map, got %s", what, v.Type())
}

func propertyList(op, what, name string, sel binding.Value) ([]string, error) {
	switch sel.Type() {
	case binding.TypeNull:
		return []string{}, nil
	case binding.TypeString:
		s, _ := sel.AsString()
		return []string{s}, nil
	case binding.TypeList:
		keys := make([]string, 0, len(sel.Items()))
		for _, item := range sel.Items() {
			if item.Type() != binding.TypeString {
				return nil, qerr.Invalid(op, "%s projection %q: property names must be strings", what, name)
			}
			s, _ := item.AsString()
			keys = append(keys, s)
		}
		return keys, nil
	}
	return nil, qerr.Invalid(op, "%s projection %q: properties must be a string or list, got %s", what, name, sel.Type())
}

// LooksLikeQuery reports whether text begins with MATCH, WITH or CALL once
// leading whitespace and comments (//, --, /* */) are skipped.
func LooksLikeQuery(text string) bool {
	rest := skipComments(text)
	for _, kw := range []string{"MATCH", "WITH", "CALL"} {
		if len(rest) < len(kw) || !strings.EqualFold(rest[:len(kw)], kw) {
			continue
		}
		if len(rest) == len(kw) || !isIdentByte(rest[len(kw)]) {
			return true
		}
	}
	return false
}

func skipComments(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n")
		switch {
		case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "--"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}
			s = s[end+4:]
		default:
			return s
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
