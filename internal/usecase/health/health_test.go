package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type pinger struct {
	err   error
	block bool
}

func (p *pinger) Ping(ctx context.Context) error {
	if p.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.err
}

func fails(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func passes(context.Context) error { return nil }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		probes []Probe
		want   Status
		checks map[string]CheckResult
	}{
		{
			name: "all healthy",
			probes: []Probe{
				Ping(ComponentValkey, &pinger{}),
				Ping(ComponentPostgres, &pinger{}),
				{Name: ComponentEmbedding, Check: passes},
			},
			want: Healthy,
			checks: map[string]CheckResult{
				ComponentValkey: CheckOK, ComponentPostgres: CheckOK, ComponentEmbedding: CheckOK,
			},
		},
		{
			name: "postgres down",
			probes: []Probe{
				Ping(ComponentValkey, &pinger{}),
				Ping(ComponentPostgres, &pinger{err: errors.New("conn refused")}),
			},
			want:   Degraded,
			checks: map[string]CheckResult{ComponentValkey: CheckOK, ComponentPostgres: CheckError},
		},
		{
			name: "embedding down",
			probes: []Probe{
				Ping(ComponentValkey, &pinger{}),
				{Name: ComponentEmbedding, Check: fails("timeout")},
			},
			want:   Degraded,
			checks: map[string]CheckResult{ComponentValkey: CheckOK, ComponentEmbedding: CheckError},
		},
		{
			name: "everything down",
			probes: []Probe{
				Ping(ComponentValkey, &pinger{err: errors.New("down")}),
				{Name: ComponentEmbedding, Check: fails("401")},
			},
			want:   Unhealthy,
			checks: map[string]CheckResult{ComponentValkey: CheckError, ComponentEmbedding: CheckError},
		},
		{
			name: "missing components are left out",
			probes: []Probe{
				Ping(ComponentValkey, &pinger{}),
				Ping(ComponentPostgres, nil),
				{Name: ComponentEmbedding},
			},
			want:   Healthy,
			checks: map[string]CheckResult{ComponentValkey: CheckOK},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.probes...).Check(context.Background())
			if r.Status != tt.want {
				t.Errorf("status = %q, want %q", r.Status, tt.want)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tt.checks)
			}
			for name, want := range tt.checks {
				if r.Checks[name] != want {
					t.Errorf("%s = %q, want %q", name, r.Checks[name], want)
				}
			}
		})
	}
}

func TestCheck_SlowProbeTimesOut(t *testing.T) {
	svc := New(Ping(ComponentValkey, &pinger{block: true}), Ping(ComponentPostgres, &pinger{}))
	svc.timeout = 20 * time.Millisecond

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check not bounded by timeout")
	}
	if r.Checks[ComponentValkey] != CheckError || r.Status != Degraded {
		t.Errorf("report = %+v", r)
	}
}
