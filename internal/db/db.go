// Package db defines the storage contract of the valkey-backed parts of skillrank:
// learned corrections and analytics hashes, the query-embedding cache and the candidate vector index.
package db

import (
	"context"
	"errors"
	"time"
)

// Store is everything the valkey implementation offers. Repositories depend on narrower
// interfaces declared next to them.
//
//nolint:interfacebloat // facade; consumers declare their own subsets
type Store interface {
	Hashes
	Blobs
	VectorIndex
	Ping(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
	Close()
}

// HashSetItem is one hash written by HSetMulti.
type HashSetItem struct {
	Key    string
	Fields map[string]string
}

// Hashes reads and writes hash keys.
type Hashes interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []HashSetItem) error
	// HGetAll returns an empty map for a missing key.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllMulti is positional: out[i] belongs to keys[i].
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Blobs stores opaque values that expire.
type Blobs interface {
	// Get returns ErrKeyNotFound for a missing or expired key.
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// VectorIndex manages a search index over hashes and queries it by vector.
type VectorIndex interface {
	// CreateIndex returns ErrIndexExists when another process created it first.
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *KNNQuery) (*KNNResult, error)
}

var (
	ErrKeyNotFound = errors.New("db: key not found")
	ErrIndexExists = errors.New("db: index already exists")
)

// Op names the server command that failed.
type Op string

const (
	OpHSet     Op = "HSET"
	OpHGetAll  Op = "HGETALL"
	OpGet      Op = "GET"
	OpSet      Op = "SET"
	OpFTCreate Op = "FT.CREATE"
	OpFTInfo   Op = "FT.INFO"
	OpFTSearch Op = "FT.SEARCH"
)

// Error is a failed server command. Key is empty for commands not bound to one key.
type Error struct {
	Op  Op
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return "db: " + string(e.Op) + ": " + e.Err.Error()
	}
	return "db: " + string(e.Op) + " " + e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
