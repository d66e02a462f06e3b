// Package maintenance runs periodic cache cleanup on a cron schedule.
package maintenance

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/robfig/cron/v3"

	"dashboard-cache/internal/cache"
	"dashboard-cache/internal/common/errors"
	"dashboard-cache/internal/common/logging"
)

// DefaultSchedule sweeps once a minute.
const DefaultSchedule = "@every 1m"

// ValidateSchedule checks a standard five-field cron expression or descriptor.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return errors.ConfigError(fmt.Sprintf("invalid sweep schedule %q: %v", spec, err))
	}
	return nil
}

// Scheduler removes expired entries and enforces the size budget in the background.
type Scheduler struct {
	cache    *cache.Cache
	schedule string
	logger   logging.Logger
	cron     *cron.Cron
	runs     atomic.Int64
}

// New creates a scheduler for c. An empty schedule uses DefaultSchedule.
func New(c *cache.Cache, schedule string, logger logging.Logger) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if err := ValidateSchedule(schedule); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.String("component", "maintenance"))

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cache:    c,
		schedule: schedule,
		logger:   logger,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}, nil
}

// Start runs the schedule until ctx is cancelled, then waits for a running sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return errors.ConfigError(fmt.Sprintf("failed to schedule sweep: %v", err))
	}

	s.cron.Start()
	s.logger.Info("Maintenance scheduler started", logging.String("schedule", s.schedule))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("Maintenance scheduler stopped")
	return nil
}

// RunOnce sweeps expired entries, then evicts down to 95% of the budget if the
// cache is still over it.
func (s *Scheduler) RunOnce(ctx context.Context) cache.CleanupResult {
	defer s.runs.Add(1)

	cfg := s.cache.Config()
	res := s.cache.Cleanup(ctx, cfg.Prefix, 0)

	if size := s.cache.TotalSize(ctx, cfg.Prefix); size > cfg.TotalBudget {
		target := cfg.TotalBudget * 95 / 100
		s.logger.Info("Cache over budget, evicting",
			logging.Int64("size", size),
			logging.Int64("budget", cfg.TotalBudget))
		evicted := s.cache.Cleanup(ctx, cfg.Prefix, target)
		res.Expired += evicted.Expired
		res.Corrupt += evicted.Corrupt
		res.Evicted += evicted.Evicted
	}

	s.logger.Debug("Maintenance sweep finished",
		logging.Int("expired", res.Expired),
		logging.Int("corrupt", res.Corrupt),
		logging.Int("evicted", res.Evicted))
	return res
}

// Runs returns how many sweeps have completed.
func (s *Scheduler) Runs() int64 {
	return s.runs.Load()
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvFields(keysAndValues)...)
}

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}
