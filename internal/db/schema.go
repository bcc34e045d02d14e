package db

import (
	"fmt"
	"regexp"
)

// FieldKind is the schema type of an indexed hash field.
type FieldKind string

const (
	KindTag     FieldKind = "TAG"
	KindNumeric FieldKind = "NUMERIC"
	KindVector  FieldKind = "VECTOR"
)

// Distance is the metric a vector field is compared with.
type Distance string

const (
	Cosine       Distance = "COSINE"
	InnerProduct Distance = "IP"
	Euclidean    Distance = "L2"
)

// HNSW parameterizes a FLOAT32 vector field. Zero M or EFConstruction leaves the server default.
type HNSW struct {
	Dim            int
	Distance       Distance
	M              int
	EFConstruction int
}

// IndexField is one schema entry. Separator applies to tags, Vector to vectors.
type IndexField struct {
	Name      string
	Kind      FieldKind
	Separator string
	Vector    *HNSW
}

// IndexDefinition describes an index over hashes whose keys start with one of Prefixes.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

var identifier = regexp.MustCompile(`^[A-Za-z0-9_:-]+$`)

// Validate rejects definitions the server would refuse or misread.
func (d *IndexDefinition) Validate() error {
	if !identifier.MatchString(d.Name) {
		return fmt.Errorf("index name %q must match %s", d.Name, identifier)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("index %s has no fields", d.Name)
	}
	names := make(map[string]struct{}, len(d.Fields))
	for i, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("index %s: field %d has no name", d.Name, i)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("index %s: field %s declared twice", d.Name, f.Name)
		}
		names[f.Name] = struct{}{}

		switch f.Kind {
		case KindTag, KindNumeric:
		case KindVector:
			if f.Vector == nil || f.Vector.Dim <= 0 {
				return fmt.Errorf("index %s: vector field %s needs a positive dimension", d.Name, f.Name)
			}
		default:
			return fmt.Errorf("index %s: field %s has unknown kind %q", d.Name, f.Name, f.Kind)
		}
	}
	return nil
}

// IndexBuilder assembles an IndexDefinition field by field.
type IndexBuilder struct {
	def IndexDefinition
}

func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Kind: KindTag})
}

// TagList is a tag field holding several values joined by sep.
func (b *IndexBuilder) TagList(name, sep string) *IndexBuilder {
	return b.field(IndexField{Name: name, Kind: KindTag, Separator: sep})
}

func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	return b.field(IndexField{Name: name, Kind: KindNumeric})
}

func (b *IndexBuilder) Vector(name string, params HNSW) *IndexBuilder {
	return b.field(IndexField{Name: name, Kind: KindVector, Vector: &params})
}

func (b *IndexBuilder) field(f IndexField) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

// Build validates and returns a copy of the definition.
func (b *IndexBuilder) Build() (*IndexDefinition, error) {
	def := b.def
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}
