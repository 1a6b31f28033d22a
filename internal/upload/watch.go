package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron"
)

// Watch runs the uploader on a cron schedule (e.g. "@every 30m" or
// "0 0 6 * * *") until ctx is cancelled. A tick that fires while the
// previous run is still going is skipped. report, if set, receives each
// run's outcome.
func (u *Uploader) Watch(ctx context.Context, spec string, report func(Stats, error)) error {
	var mu sync.Mutex
	run := func() {
		if !mu.TryLock() {
			u.log.Warn("previous upload still running, skipping tick")
			return
		}
		defer mu.Unlock()

		stats, err := u.Run(ctx)
		if report != nil {
			report(*stats, err)
		}
	}

	c := cron.New()
	if err := c.AddFunc(spec, run); err != nil {
		return fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	u.log.Info("watching for new workouts", "dir", u.dir, "schedule", spec)

	run()
	c.Start()
	<-ctx.Done()
	c.Stop()

	// Wait for an in-flight run to observe the cancellation.
	mu.Lock()
	mu.Unlock()
	return nil
}
