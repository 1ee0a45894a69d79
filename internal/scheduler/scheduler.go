// Package scheduler enqueues recurring background tasks on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"
)

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Enqueuer puts a task on the queue and returns its id.
type Enqueuer interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
}

// Job is a task enqueued on a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Task     func() backlite.Task
}

// Scheduler manages periodic enqueueing of background tasks.
type Scheduler struct {
	queue Enqueuer
	jobs  []Job

	cron       *cron.Cron
	entries    map[string]cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// New creates a new scheduler instance. Jobs are validated on Start.
func New(queue Enqueuer, jobs ...Job) *Scheduler {
	return &Scheduler{
		queue:   queue,
		jobs:    jobs,
		cron:    cron.New(cron.WithParser(parser)),
		entries: make(map[string]cron.EntryID),
	}
}

// Start schedules every job and starts the cron loop. It stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if len(s.jobs) == 0 {
		log.Info("Scheduler: no jobs enabled")
		return nil
	}

	for _, job := range s.jobs {
		if err := ValidateCronSchedule(job.Schedule); err != nil {
			return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
		}
		job := job
		entryID, err := s.cron.AddFunc(job.Schedule, func() {
			s.enqueue(job)
		})
		if err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
		s.entries[job.Name] = entryID

		nextRun, _ := GetNextRunTime(job.Schedule)
		log.Info("Scheduler: job scheduled", "job", job.Name, "schedule", job.Schedule,
			"description", GetCronDescription(job.Schedule), "next_run", nextRun)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running ones.
	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning = false
	s.cancelFunc = nil

	log.Info("Scheduler: stopped")
}

// RunNow enqueues the named job immediately.
func (s *Scheduler) RunNow(name string) error {
	for _, job := range s.jobs {
		if job.Name == name {
			s.enqueue(job)
			return nil
		}
	}
	return fmt.Errorf("unknown job %q", name)
}

// IsRunning returns whether the scheduler is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the named job will next fire.
func (s *Scheduler) NextRunTime(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	id, ok := s.entries[name]
	if !ok {
		return nil
	}
	t := s.cron.Entry(id).Next
	return &t
}

func (s *Scheduler) enqueue(job Job) {
	id, err := s.queue.Enqueue(context.Background(), job.Task())
	if err != nil {
		log.Error("Scheduler: failed to enqueue task", "job", job.Name, "err", err)
		return
	}
	log.Info("Scheduler: task enqueued", "job", job.Name, "task_id", id)
}

// ValidateCronSchedule checks a standard five-field cron expression.
func ValidateCronSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// GetCronDescription returns a human-readable description of a cron schedule
func GetCronDescription(schedule string) string {
	switch schedule {
	case "0 * * * *":
		return "Every hour at :00"
	case "*/15 * * * *":
		return "Every 15 minutes"
	case "*/30 * * * *":
		return "Every 30 minutes"
	case "0 */6 * * *":
		return "Every 6 hours"
	case "0 0 * * *":
		return "Daily at midnight"
	case "30 3 * * *":
		return "Daily at 03:30"
	case "0 0 * * 0":
		return "Weekly on Sunday at midnight"
	default:
		return "Custom schedule: " + schedule
	}
}

// GetNextRunTime calculates when a schedule next fires from now.
func GetNextRunTime(schedule string) (*time.Time, error) {
	sched, err := parser.Parse(schedule)
	if err != nil {
		return nil, err
	}
	next := sched.Next(time.Now())
	return &next, nil
}
