package valkey

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/skillrank/internal/db"
)

func candidateIndex(t *testing.T) *db.IndexDefinition {
	t.Helper()
	def, err := db.NewIndex("skillrank:candidates:idx").
		Prefix("skillrank:cand:").
		Tag("scope").
		TagList("skills", ",").
		Vector("vector", db.HNSW{Dim: 4, M: 16, EFConstruction: 200}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return def
}

func TestCreateArgs(t *testing.T) {
	want := []string{
		"skillrank:candidates:idx", "ON", "HASH",
		"PREFIX", "1", "skillrank:cand:",
		"SCHEMA",
		"scope", "TAG",
		"skills", "TAG", "SEPARATOR", ",",
		"vector", "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32", "DIM", "4", "DISTANCE_METRIC", "COSINE", "M", "16", "EF_CONSTRUCTION", "200",
	}
	if got := createArgs(candidateIndex(t)); !slices.Equal(got, want) {
		t.Errorf("args:\n got %v\nwant %v", got, want)
	}
}

func TestCreateIndex(t *testing.T) {
	tests := []struct {
		name    string
		reply   any
		wantErr func(error) bool
	}{
		{"created", mock.Result(mock.RedisString("OK")), func(err error) bool { return err == nil }},
		{"lost race", mock.Result(mock.RedisError("Index already exists")), func(err error) bool {
			return errors.Is(err, db.ErrIndexExists)
		}},
		{"other", mock.Result(mock.RedisError("ERR bad schema")), func(err error) bool {
			var dbErr *db.Error
			return errors.As(err, &dbErr) && dbErr.Op == db.OpFTCreate
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), commandIs("FT.CREATE")).Return(tt.reply)

			if err := s.CreateIndex(context.Background(), candidateIndex(t)); !tt.wantErr(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreateIndex_InvalidDefinition(t *testing.T) {
	s := NewStoreWithClient(nil)
	if err := s.CreateIndex(context.Background(), &db.IndexDefinition{Name: "idx"}); err == nil {
		t.Fatal("expected validation error before any command is sent")
	}
}

func TestIndexExists(t *testing.T) {
	tests := []struct {
		name    string
		reply   any
		want    bool
		wantErr bool
	}{
		{"present", mock.Result(mock.RedisArray(mock.RedisString("index_name"))), true, false},
		{"unknown", mock.Result(mock.RedisError("Unknown Index name")), false, false},
		{"not found", mock.Result(mock.RedisError("idx: no such index")), false, false},
		{"down", mock.ErrorResult(context.DeadlineExceeded), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("FT.INFO", "idx")).Return(tt.reply)

			got, err := s.IndexExists(context.Background(), "idx")
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("exists = %v, want %v", got, tt.want)
			}
		})
	}
}
