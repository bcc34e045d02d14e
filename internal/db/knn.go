package db

import (
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/skillrank/internal/domain/search/filter"
)

// KNNQuery asks for the K nearest hashes to Vector, optionally pre-filtered by tags.
type KNNQuery struct {
	Index  string
	Field  string
	Filter filter.Expression
	Vector []float32
	K      int
	// Return lists hash fields to include in each match; empty returns none.
	Return []string
}

// KNNResult holds matches ordered by decreasing similarity.
type KNNResult struct {
	Total   int
	Matches []Match
}

// Match is one hash found by a KNN query. Similarity is 1 minus the cosine distance.
type Match struct {
	Key        string
	Similarity float64
	Fields     map[string]string
}

// VectorBlob encodes v as little-endian FLOAT32, the layout vector fields are stored and queried in.
func VectorBlob(v []float32) string {
	buf := make([]byte, 0, 4*len(v))
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return string(buf)
}
