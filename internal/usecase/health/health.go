// Package health probes the collaborators skillrank depends on and folds the outcomes into one status.
package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/skillrank/internal/logger"
)

// Status is the overall verdict.
type Status string

const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the verdict for one component.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Component names reported by the server.
const (
	ComponentValkey    = "valkey"
	ComponentPostgres  = "postgres"
	ComponentEmbedding = "embedding"
)

// DefaultCheckTimeout bounds each probe.
const DefaultCheckTimeout = 2 * time.Second

// Report maps component names to their results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Probe checks one component.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// Ping makes a probe out of anything with a Ping method. A nil pinger yields a probe that is skipped.
func Ping(name string, p interface{ Ping(context.Context) error }) Probe {
	if p == nil {
		return Probe{Name: name}
	}
	return Probe{Name: name, Check: p.Ping}
}

// Service runs probes.
type Service struct {
	probes  []Probe
	timeout time.Duration
}

// New keeps the probes that have a Check function; the others are left out of every report.
func New(probes ...Probe) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	for _, p := range probes {
		if p.Check != nil {
			s.probes = append(s.probes, p)
		}
	}
	return s
}

// Check runs every probe concurrently, each under its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	errs := make([]error, len(s.probes))
	var g errgroup.Group
	for i, p := range s.probes {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			errs[i] = p.Check(pctx)
			return nil
		})
	}
	_ = g.Wait()

	log := logger.FromContext(ctx)
	checks := make(map[string]CheckResult, len(s.probes))
	failed := 0
	for i, p := range s.probes {
		if errs[i] != nil {
			failed++
			checks[p.Name] = CheckError
			log.Warn("Health probe failed", zap.String("component", p.Name), zap.Error(errs[i]))
			continue
		}
		checks[p.Name] = CheckOK
	}

	status := Degraded
	switch failed {
	case 0:
		status = Healthy
	case len(s.probes):
		status = Unhealthy
	}
	return Report{Status: status, Checks: checks}
}
