package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"linkstat/internal/scraper"
)

// Job is one scheduled run.
type Job func(ctx context.Context) error

// New builds a cron runner in the batch time zone. Overlapping runs are skipped.
func New(log zerolog.Logger) *cron.Cron {
	logger := cronLogger{log: log}
	return cron.New(
		cron.WithLocation(scraper.Zone),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
}

// Run executes job on every tick of spec until ctx is cancelled. Job
// failures are logged and do not stop the schedule.
func Run(ctx context.Context, spec string, job Job) error {
	log := zerolog.Ctx(ctx)
	c := New(*log)

	id, err := c.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	next := c.Entry(id).Schedule.Next(time.Now().In(scraper.Zone))
	log.Info().Str("schedule", spec).Time("next", next).Msg("Scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
