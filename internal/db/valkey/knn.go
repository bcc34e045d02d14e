package valkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/skillrank/internal/db"
	"github.com/kailas-cloud/skillrank/internal/domain/search/filter"
)

const scoreField = "__vector_score"

// SearchKNN runs FT.SEARCH with a KNN clause, pre-filtered by q.Filter.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.KNNResult, error) {
	switch {
	case q.Index == "":
		return nil, errors.New("valkey: knn query needs an index")
	case len(q.Vector) == 0:
		return nil, errors.New("valkey: knn query needs a vector")
	case q.K <= 0:
		return nil, fmt.Errorf("valkey: knn k must be positive, got %d", q.K)
	}

	args := []string{q.Index, knnClause(q)}
	ret := append(append([]string(nil), q.Return...), scoreField)
	args = append(args, "RETURN", strconv.Itoa(len(ret)))
	args = append(args, ret...)
	args = append(args,
		"PARAMS", "2", "BLOB", db.VectorBlob(q.Vector),
		"LIMIT", "0", strconv.Itoa(q.K),
		"DIALECT", "2",
	)

	reply, err := s.client.Do(ctx, s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpFTSearch, Key: q.Index, Err: err}
	}
	return decodeKNN(reply)
}

func knnClause(q *db.KNNQuery) string {
	field := q.Field
	if field == "" {
		field = "vector"
	}
	pre := "*"
	if f := tagFilter(q.Filter); f != "" {
		pre = "(" + f + ")"
	}
	return fmt.Sprintf("%s=>[KNN %d @%s $BLOB]", pre, q.K, field)
}

// decodeKNN reads the RESP2 reply [total, key, [field, value, ...], key, [...], ...].
func decodeKNN(reply []rueidis.RedisMessage) (*db.KNNResult, error) {
	res := &db.KNNResult{}
	if len(reply) == 0 {
		return res, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("valkey: knn reply total: %w", err)
	}
	res.Total = int(total)

	rest := reply[1:]
	for len(rest) >= 2 {
		key, kerr := rest[0].ToString()
		pairs, perr := rest[1].ToArray()
		rest = rest[2:]
		if kerr != nil || perr != nil {
			continue
		}
		m := db.Match{Key: key, Fields: make(map[string]string, len(pairs)/2)}
		for i := 0; i+1 < len(pairs); i += 2 {
			name, nerr := pairs[i].ToString()
			val, verr := pairs[i+1].ToString()
			if nerr == nil && verr == nil {
				m.Fields[name] = val
			}
		}
		if raw, ok := m.Fields[scoreField]; ok {
			if dist, err := strconv.ParseFloat(raw, 64); err == nil {
				m.Similarity = 1 - dist
			}
			delete(m.Fields, scoreField)
		}
		res.Matches = append(res.Matches, m)
	}
	return res, nil
}

// tagFilter renders must conditions as @key:{a | b} and must-not ones with a leading minus.
func tagFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}
	var b strings.Builder
	write := func(neg bool, c filter.Condition) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		if neg {
			b.WriteByte('-')
		}
		b.WriteString("@" + c.Key() + ":{")
		for i, v := range c.Values() {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(escapeTag(v))
		}
		b.WriteByte('}')
	}
	for _, c := range expr.Must() {
		write(false, c)
	}
	for _, c := range expr.MustNot() {
		write(true, c)
	}
	return b.String()
}

const tagSpecials = ",.<>{}\"':;!@#$%^&*()-+=~| "

func escapeTag(v string) string {
	if !strings.ContainsAny(v, tagSpecials) {
		return v
	}
	var b strings.Builder
	b.Grow(len(v) + 4)
	for _, r := range v {
		if strings.ContainsRune(tagSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
