package service

import (
	"errors"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/streamvault/streamvault/internal/domain"
	"github.com/streamvault/streamvault/internal/infrastructure/logger"
	"github.com/streamvault/streamvault/internal/port"
)

// Scheduler fires recordings from cron expressions. Schedules are loaded
// once at startup; a restart picks up edits.
type Scheduler struct {
	schedules port.ScheduleStore
	recorder  *Recorder
	cron      *cron.Cron
}

func NewScheduler(schedules port.ScheduleStore, recorder *Recorder) *Scheduler {
	return &Scheduler{
		schedules: schedules,
		recorder:  recorder,
		cron:      cron.New(),
	}
}

// Start registers all active schedules and launches the cron runner. A
// schedule with an unparsable expression is skipped and logged, not fatal.
func (s *Scheduler) Start() error {
	schedules, err := s.schedules.ListActiveSchedules()
	if err != nil {
		return err
	}

	for _, sched := range schedules {
		sched := sched
		if _, err := s.cron.AddFunc(sched.CronExpr, func() { s.fire(sched) }); err != nil {
			logger.Error.Printf("schedule %d: bad cron expression %q: %v",
				sched.ID, logger.SanitizeForLog(sched.CronExpr), err)
			continue
		}
		logger.Info.Printf("schedule %d registered for source %d (%s)",
			sched.ID, sched.SourceID, sched.CronExpr)
	}

	s.cron.Start()
	return nil
}

// Stop halts the runner and waits for any running fire to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// fire starts a recording for the schedule's source. An already-running
// recording is expected overlap, not an error.
func (s *Scheduler) fire(sched *domain.Schedule) {
	task, err := s.recorder.Start(sched.SourceID)
	switch {
	case errors.Is(err, domain.ErrAlreadyActive):
		logger.Debug.Printf("schedule %d: source %d already recording", sched.ID, sched.SourceID)
		return
	case err != nil:
		logger.Error.Printf("schedule %d: start recording: %v", sched.ID, err)
		return
	}

	logger.Info.Printf("schedule %d started recording task %d", sched.ID, task.ID)
	if err := s.schedules.TouchScheduleRun(sched.ID, time.Now()); err != nil {
		logger.Error.Printf("schedule %d: record run time: %v", sched.ID, err)
	}
}
