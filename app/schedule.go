package app

import (
	"context"
	"errors"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kilianp07/battsim/core/logger"
	"github.com/kilianp07/battsim/core/simulator"
)

// StartSchedule runs the scripted sequence every intervalSeconds, starting
// now. A run still in progress when the next one is due makes gocron skip
// that slot. The returned scheduler must be stopped by the caller.
func StartSchedule(ctx context.Context, sim *simulator.Simulator, intervalSeconds int, log logger.Logger) (*gocron.Scheduler, *gocron.Job, error) {
	s := gocron.NewScheduler(time.UTC)
	job, err := s.Every(intervalSeconds).Seconds().SingletonMode().Do(func() {
		log.Infof("scheduled simulation starting")
		if err := sim.Simulate(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warnf("scheduled simulation: %v", err)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	s.StartAsync()
	return s, job, nil
}
