package valkey

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/skillrank/internal/db"
)

var unknownIndex = []string{"not found", "unknown index name", "no such index"}

func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("valkey: %w", err)
	}
	cmd := s.client.B().Arbitrary("FT.CREATE").Args(createArgs(def)...).Build()
	err := s.client.Do(ctx, cmd).Error()
	switch {
	case err == nil:
		return nil
	case serverSays(err, "already exists"):
		return db.ErrIndexExists
	default:
		return &db.Error{Op: db.OpFTCreate, Key: def.Name, Err: err}
	}
}

// IndexExists asks FT.INFO; an unknown-index reply means false.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.client.Do(ctx, s.client.B().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case serverSays(err, unknownIndex...):
		return false, nil
	default:
		return false, &db.Error{Op: db.OpFTInfo, Key: name, Err: err}
	}
}

// createArgs renders a validated definition as FT.CREATE arguments.
func createArgs(def *db.IndexDefinition) []string {
	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(args, "PREFIX", strconv.Itoa(n))
		args = append(args, def.Prefixes...)
	}
	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		args = append(args, f.Name, string(f.Kind))
		switch f.Kind {
		case db.KindTag:
			if f.Separator != "" {
				args = append(args, "SEPARATOR", f.Separator)
			}
		case db.KindVector:
			args = append(args, hnswArgs(f.Vector)...)
		case db.KindNumeric:
		}
	}
	return args
}

func hnswArgs(p *db.HNSW) []string {
	metric := p.Distance
	if metric == "" {
		metric = db.Cosine
	}
	attrs := []string{"TYPE", "FLOAT32", "DIM", strconv.Itoa(p.Dim), "DISTANCE_METRIC", string(metric)}
	if p.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(p.M))
	}
	if p.EFConstruction > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(p.EFConstruction))
	}
	return append([]string{"HNSW", strconv.Itoa(len(attrs))}, attrs...)
}
