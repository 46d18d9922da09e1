package application

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

// runEvery calls fn on every tick until ctx is cancelled or the returned
// stop function is called. A panicking iteration is logged and the loop
// keeps going.
func runEvery(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("%s started, running every %v", name, interval)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Infof("%s shutting down (context cancelled)...", name)
				return
			case <-stopChan:
				log.Infof("%s shutting down (stop requested)...", name)
				return
			case <-ticker.C:
				safeRun(ctx, name, fn)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// runDaily calls fn once a day at hour:minute UTC
func runDaily(ctx context.Context, name string, hour, minute int, fn func(context.Context)) func() {
	stopChan := make(chan struct{})

	go func() {
		log.Infof("%s started, next run at %02d:%02d UTC", name, hour, minute)

		for {
			waitDuration := nextDailyRun(time.Now().UTC(), hour, minute)
			log.Debugf("%s waiting %v until next run", name, waitDuration)

			select {
			case <-ctx.Done():
				log.Infof("%s shutting down (context cancelled)...", name)
				return
			case <-stopChan:
				log.Infof("%s shutting down (stop requested)...", name)
				return
			case <-time.After(waitDuration):
				safeRun(ctx, name, fn)
			}
		}
	}()

	return func() {
		close(stopChan)
	}
}

// nextDailyRun returns how long until the next hour:minute UTC strictly after now
func nextDailyRun(now time.Time, hour, minute int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func safeRun(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
		}
	}()
	fn(ctx)
}

// WithUnitOfWork runs fn inside a guild transaction, committing on success
func WithUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, guildID int64, fn func(UnitOfWork) error) error {
	uow := factory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := fn(uow); err != nil {
		return err
	}
	return uow.Commit()
}
