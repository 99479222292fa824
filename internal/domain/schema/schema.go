// Package schema defines the fixed set of queryable attributes and their
// types. The registry is loaded once at startup and is read-only for the
// process lifetime.
package schema

import (
	"fmt"
	"slices"
)

// Kind identifies how an attribute is indexed and which predicate kinds
// are legal against it.
type Kind string

const (
	// Keyword is an exact-match field, optionally with a declared enumeration.
	Keyword Kind = "keyword"
	// Text is a full-text analysed field.
	Text Kind = "text"
	// Numeric is a floating-point field.
	Numeric Kind = "numeric"
	// Integer is a whole-number field.
	Integer Kind = "integer"
	// Date is a date field.
	Date Kind = "date"
	// Object is a container for nested child attributes.
	Object Kind = "object"
)

func (k Kind) valid() bool {
	switch k {
	case Keyword, Text, Numeric, Integer, Date, Object:
		return true
	}
	return false
}

// Rangeable reports whether range predicates are legal on this kind.
func (k Kind) Rangeable() bool {
	return k == Numeric || k == Integer || k == Date
}

// Definition describes one attribute when building a registry.
type Definition struct {
	Path string
	Kind Kind

	// Enum restricts legal term values. Only valid on Keyword attributes.
	// Non-nil but empty is a construction error.
	Enum []string

	// ExactSubField names a keyword sub-field used for exact matching, for
	// attributes whose primary mapping is analysed text (e.g. "keyword" for
	// a name field indexed as name.keyword). Empty means the attribute path
	// itself is exact-matchable.
	ExactSubField string

	// Children holds nested attribute definitions. Only valid on Object.
	Children []Definition
}

// Attribute is an immutable descriptor for one queryable field.
type Attribute struct {
	path       string
	kind       Kind
	enum       []string
	indexField string
	children   []Attribute
}

// Path returns the full dotted attribute path.
func (a Attribute) Path() string { return a.path }

// Kind returns the declared attribute kind.
func (a Attribute) Kind() Kind { return a.kind }

// Enum returns the declared enumeration, nil when unrestricted.
func (a Attribute) Enum() []string { return slices.Clone(a.enum) }

// HasEnum reports whether the attribute declares an enumeration.
func (a Attribute) HasEnum() bool { return a.enum != nil }

// AllowsValue reports whether v is a legal term value for this attribute.
// Attributes without an enumeration allow any value.
func (a Attribute) AllowsValue(v string) bool {
	if a.enum == nil {
		return true
	}
	return slices.Contains(a.enum, v)
}

// IndexField returns the concrete field name to address in the search index
// for exact matching. For attributes backed by a keyword sub-field this is
// "<path>.<sub>"; otherwise it is the path itself. Resolving the exact-match
// field here keeps the suffix out of the model's hands entirely.
func (a Attribute) IndexField() string { return a.indexField }

// Children returns nested child attributes, nil for leaf attributes.
func (a Attribute) Children() []Attribute { return slices.Clone(a.children) }

// Registry is the ordered, immutable set of queryable attributes.
type Registry struct {
	attrs  []Attribute
	byPath map[string]Attribute
}

// New builds a registry from definitions. It fails on the first malformed
// definition: duplicate path, unknown kind, empty enumeration, enumeration
// on a non-keyword attribute, or an object attribute without children.
func New(defs []Definition) (*Registry, error) {
	r := &Registry{byPath: make(map[string]Attribute)}
	for _, d := range defs {
		attr, err := buildAttribute(d, "")
		if err != nil {
			return nil, err
		}
		if err := r.add(attr); err != nil {
			return nil, err
		}
	}
	if len(r.attrs) == 0 {
		return nil, fmt.Errorf("schema: no attributes defined")
	}
	return r, nil
}

// MustNew builds a registry or panics. For static, compile-time definitions.
func MustNew(defs []Definition) *Registry {
	r, err := New(defs)
	if err != nil {
		panic(err)
	}
	return r
}

func buildAttribute(d Definition, parent string) (Attribute, error) {
	path := d.Path
	if parent != "" {
		path = parent + "." + d.Path
	}
	if d.Path == "" {
		return Attribute{}, fmt.Errorf("schema: attribute with empty path under %q", parent)
	}
	if !d.Kind.valid() {
		return Attribute{}, fmt.Errorf("schema: attribute %q has unknown kind %q", path, d.Kind)
	}
	if d.Enum != nil {
		if d.Kind != Keyword {
			return Attribute{}, fmt.Errorf("schema: attribute %q declares an enumeration but is %q, not keyword", path, d.Kind)
		}
		if len(d.Enum) == 0 {
			return Attribute{}, fmt.Errorf("schema: keyword attribute %q declares an empty enumeration", path)
		}
	}
	if d.Kind == Object && len(d.Children) == 0 {
		return Attribute{}, fmt.Errorf("schema: object attribute %q has no children", path)
	}
	if d.Kind != Object && len(d.Children) > 0 {
		return Attribute{}, fmt.Errorf("schema: attribute %q has children but is %q, not object", path, d.Kind)
	}

	indexField := path
	if d.ExactSubField != "" {
		indexField = path + "." + d.ExactSubField
	}

	attr := Attribute{
		path:       path,
		kind:       d.Kind,
		enum:       slices.Clone(d.Enum),
		indexField: indexField,
	}
	for _, cd := range d.Children {
		child, err := buildAttribute(cd, path)
		if err != nil {
			return Attribute{}, err
		}
		attr.children = append(attr.children, child)
	}
	return attr, nil
}

func (r *Registry) add(attr Attribute) error {
	if _, dup := r.byPath[attr.path]; dup {
		return fmt.Errorf("schema: duplicate attribute path %q", attr.path)
	}
	r.attrs = append(r.attrs, attr)
	r.byPath[attr.path] = attr
	for _, child := range attr.children {
		if err := r.add(child); err != nil {
			return err
		}
	}
	return nil
}

// Describe returns all attributes, parents before children, in declaration
// order.
func (r *Registry) Describe() []Attribute {
	return slices.Clone(r.attrs)
}

// Lookup resolves a dotted attribute path to its descriptor.
func (r *Registry) Lookup(path string) (Attribute, bool) {
	attr, ok := r.byPath[path]
	return attr, ok
}
