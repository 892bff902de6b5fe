// Package query orchestrates probing, aggregation, and the repository behind
// a single service the API and CLI talk to.
package query

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hazz-dev/appstatus/internal/aggregate"
	"github.com/hazz-dev/appstatus/internal/checker"
	"github.com/hazz-dev/appstatus/internal/config"
	"github.com/hazz-dev/appstatus/internal/status"
	"github.com/hazz-dev/appstatus/internal/store"
)

// maxConcurrentProbes bounds how many dependency probes run at once during a
// check cycle.
const maxConcurrentProbes = 4

// Service answers status queries and runs check cycles. It holds no mutable
// state of its own; all state lives in the repository.
type Service struct {
	appName   string
	deps      []config.Dependency
	providers map[string]checker.StateProvider
	checker   *checker.Checker
	repo      store.Repository
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Service. providers must contain one StateProvider per
// configured dependency name. Pass nil logger to use the default logger.
func New(cfg *config.Config, providers map[string]checker.StateProvider, ck *checker.Checker, repo store.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		appName:   cfg.Application.Name,
		deps:      cfg.Dependencies,
		providers: providers,
		checker:   ck,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordStatus validates an externally submitted record and appends it.
// Only confirmed statuses are accepted over this path: UNKNOWN and DEGRADED
// are produced internally, never ingested.
func (s *Service) RecordStatus(ctx context.Context, r status.Record) (store.RecordID, error) {
	if r.Status != status.Up && r.Status != status.Down {
		return "", &status.ValidationError{
			Field:  "service_status",
			Reason: "must be either UP or DOWN",
		}
	}
	rec, err := status.NewRecord(r.ServiceName, r.Status, r.HostName, r.Timestamp)
	if err != nil {
		return "", err
	}
	return s.repo.Append(ctx, rec)
}

// CycleReport summarizes one completed check cycle.
type CycleReport struct {
	// Dependencies holds one record per configured dependency, in
	// configuration order.
	Dependencies []status.Record

	// Application is the derived composite record appended last.
	Application status.Record

	// AppendErrors collects repository failures encountered during the
	// cycle; the cycle itself carries on past them.
	AppendErrors []error
}

// RunCheckCycle probes every dependency, appends the resulting records, then
// derives the application's composite status from those fresh records and
// appends it last. The ordering matters: a concurrent reader must never see
// an application record older than the dependency snapshot it was derived
// from.
//
// One failing probe degrades that dependency to UNKNOWN and the cycle
// continues. A cancelled context aborts the cycle between appends, leaving
// only the records already written, which is safe because the application
// record is always the final append.
func (s *Service) RunCheckCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	results := make([]status.Record, len(s.deps))
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentProbes)
	for i, dep := range s.deps {
		i, dep := i, dep
		g.Go(func() error {
			probeCtx, cancel := context.WithTimeout(ctx, dep.Timeout.Duration)
			defer cancel()
			results[i] = s.checker.Check(probeCtx, dep.Name, s.providers[dep.Name])
			return nil
		})
	}
	g.Wait()

	report.Dependencies = results

	fresh := make(map[string]status.Record, len(results))
	for _, r := range results {
		fresh[r.ServiceName] = r
	}

	// Dependency records land in configuration order before the
	// application record is computed or appended.
	for _, r := range results {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, err := s.repo.Append(ctx, r); err != nil {
			s.logger.Error("appending dependency record", "service", r.ServiceName, "error", err)
			report.AppendErrors = append(report.AppendErrors, err)
		}
	}

	names := make([]string, len(s.deps))
	for i, dep := range s.deps {
		names[i] = dep.Name
	}
	appStatus := aggregate.Status(names, fresh)

	appRecord, err := status.NewRecord(s.appName, appStatus, s.checker.Host(), s.now())
	if err != nil {
		// Unreachable with a validated config; surface it anyway.
		return report, err
	}
	report.Application = appRecord

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if _, err := s.repo.Append(ctx, appRecord); err != nil {
		s.logger.Error("appending application record", "service", s.appName, "error", err)
		report.AppendErrors = append(report.AppendErrors, err)
	}

	s.logger.Info("check cycle complete",
		"application", s.appName,
		"status", appRecord.Status,
		"dependencies", len(results),
	)
	return report, nil
}

// GetAll returns the latest record per service name. No recomputation
// happens here: the stored application record is the answer.
func (s *Service) GetAll(ctx context.Context) (map[string]status.Record, error) {
	return s.repo.LatestAll(ctx)
}

// GetOne returns the latest record for one service name.
func (s *Service) GetOne(ctx context.Context, name string) (status.Record, error) {
	return s.repo.LatestByName(ctx, name)
}

// Overview is a read-time view over the latest records: how many services
// are confirmed up or down, and which ones need attention.
type Overview struct {
	Up        int
	Down      int
	Attention []string
	Services  map[string]status.Record
}

// Overview derives the summary view from LatestAll. Attention lists every
// name whose latest status is not UP, sorted.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	all, err := s.repo.LatestAll(ctx)
	if err != nil {
		return Overview{}, err
	}

	ov := Overview{Services: all}
	for name, r := range all {
		switch r.Status {
		case status.Up:
			ov.Up++
		case status.Down:
			ov.Down++
		}
		if r.Status != status.Up {
			ov.Attention = append(ov.Attention, name)
		}
	}
	sort.Strings(ov.Attention)
	return ov, nil
}
