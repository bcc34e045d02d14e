package valkey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/skillrank/internal/db"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		reply   any
		want    string
		wantErr error
	}{
		{"hit", mock.Result(mock.RedisBlobString("\x00\x01")), "\x00\x01", nil},
		{"miss", mock.Result(mock.RedisNil()), "", db.ErrKeyNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, c := newMockStore(t)
			c.EXPECT().Do(gomock.Any(), mock.Match("GET", "emb:q")).Return(tt.reply)

			got, err := s.Get(context.Background(), "emb:q")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGet_ServerError(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), commandIs("GET")).Return(mock.ErrorResult(errors.New("broken pipe")))

	_, err := s.Get(context.Background(), "emb:q")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpGet {
		t.Fatalf("err = %v", err)
	}
}

func TestSetWithTTL(t *testing.T) {
	s, c := newMockStore(t)
	c.EXPECT().Do(gomock.Any(), mock.Match("SET", "emb:q", "vec", "PX", "90000")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := s.SetWithTTL(context.Background(), "emb:q", []byte("vec"), 90*time.Second); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
}
