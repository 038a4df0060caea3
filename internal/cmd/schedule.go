package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jimezsa/jobcollector/internal/collector"
	"github.com/jimezsa/jobcollector/internal/ratelimit"
	"github.com/jimezsa/jobcollector/internal/store"
	"github.com/robfig/cron/v3"
)

type ScheduleCmd struct {
	Spec string `help:"Cron spec or descriptor such as \"@every 6h\" (default: configured schedule)."`
	CollectOptions
}

func (s *ScheduleCmd) Run(ctx *Context) error {
	spec := strings.TrimSpace(s.Spec)
	if spec == "" {
		spec = ctx.Config.Schedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	req, err := s.CollectOptions.request(ctx, "")
	if err != nil {
		return err
	}
	rotator, err := loadRotator(s.Proxies)
	if err != nil {
		return err
	}
	sources, err := s.CollectOptions.sources(ctx, rotator)
	if err != nil {
		return err
	}

	// One limiter for every run keeps rate windows across ticks.
	limiter := ratelimit.New(ratelimit.WithClock(ctx.now))
	runCtx := ctx.context()
	runOnce := func() {
		outcome, err := runCollection(runCtx, ctx, sources, req, collector.WithLimiter(limiter))
		logProxyStatus(ctx, rotator)
		switch {
		case errors.Is(err, store.ErrLocked):
			ctx.Logger.Warn().Msg("collection skipped: another run holds the lock")
		case err != nil:
			ctx.Logger.Error().Err(err).Msg("scheduled collection failed")
		default:
			if err := printCollectOutcome(ctx, outcome); err != nil {
				ctx.Logger.Warn().Err(err).Msg("print collection outcome")
			}
		}
	}

	runOnce()

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	scheduler.Schedule(schedule, cron.FuncJob(runOnce))
	scheduler.Start()
	ctx.Logger.Info().Str("spec", spec).Time("next", schedule.Next(ctx.now())).Msg("scheduler started")

	<-runCtx.Done()
	<-scheduler.Stop().Done()
	ctx.Logger.Info().Msg("scheduler stopped")
	return nil
}
