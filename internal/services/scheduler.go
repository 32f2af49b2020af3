package services

import (
	"sync"
	"time"

	"auction-client/pkg/logger"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// TaskScheduler runs one-shot cancellable tasks on a clockwork clock and
// periodic jobs on cron.
type TaskScheduler struct {
	clock clockwork.Clock
	cron  *cron.Cron
	log   logger.Logger

	mu      sync.Mutex
	started bool
}

func NewTaskScheduler(clock clockwork.Clock, log logger.Logger) *TaskScheduler {
	return &TaskScheduler{
		clock: clock,
		cron:  cron.New(cron.WithSeconds()),
		log:   log,
	}
}

func (s *TaskScheduler) Clock() clockwork.Clock {
	return s.clock
}

// ScheduledTask is a pending one-shot task.
type ScheduledTask struct {
	timer clockwork.Timer
	once  sync.Once
	fired chan struct{}
}

// After runs fn once after d unless the task is cancelled first.
func (s *TaskScheduler) After(d time.Duration, fn func()) *ScheduledTask {
	task := &ScheduledTask{fired: make(chan struct{})}
	task.timer = s.clock.AfterFunc(d, func() {
		close(task.fired)
		fn()
	})
	return task
}

// Cancel stops the task. It reports false if the task already ran.
func (t *ScheduledTask) Cancel() bool {
	if t == nil {
		return false
	}
	stopped := false
	t.once.Do(func() {
		stopped = t.timer.Stop()
	})
	return stopped
}

// Fired is closed once the task has started running.
func (t *ScheduledTask) Fired() <-chan struct{} {
	return t.fired
}

// Every registers a periodic job. Schedules take cron syntax with a seconds
// field as well as descriptors like "@every 30s".
func (s *TaskScheduler) Every(schedule string, fn func()) (cron.EntryID, error) {
	return s.cron.AddFunc(schedule, fn)
}

func (s *TaskScheduler) Remove(id cron.EntryID) {
	s.cron.Remove(id)
}

func (s *TaskScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.log.Info("Starting task scheduler")
	s.cron.Start()
}

// Stop halts cron and waits for running jobs. One-shot tasks are owned by
// their callers and must be cancelled by them.
func (s *TaskScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.started = false
	s.log.Info("Stopping task scheduler")
	<-s.cron.Stop().Done()
}
