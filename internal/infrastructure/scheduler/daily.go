package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ResearchDigest/internal/ports"
)

// DailyScheduler fires the job once a day at a fixed local time.
type DailyScheduler struct {
	hour     int
	minute   int
	location *time.Location
	stop     chan struct{}
}

var _ ports.Scheduler = (*DailyScheduler)(nil)

// NewDailyScheduler parses runTime in "HH:MM" form and ticks in loc.
func NewDailyScheduler(runTime string, loc *time.Location) (*DailyScheduler, error) {
	parts := strings.SplitN(runTime, ":", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid daily run time %q, want HH:MM", runTime)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return nil, fmt.Errorf("invalid hour in run time %q", runTime)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("invalid minute in run time %q", runTime)
	}

	if loc == nil {
		loc = time.UTC
	}

	return &DailyScheduler{hour: hour, minute: minute, location: loc}, nil
}

// NextRun returns the next trigger time after now.
func (d *DailyScheduler) NextRun(now time.Time) time.Time {
	now = now.In(d.location)
	next := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.location)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// Start launches the trigger goroutine; each firing invokes job with the
// trigger time. Returns immediately.
func (d *DailyScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if d.stop != nil {
		return nil
	}

	d.stop = make(chan struct{})
	go func() {
		for {
			next := d.NextRun(time.Now())
			timer := time.NewTimer(time.Until(next))

			select {
			case t := <-timer.C:
				job(t)
			case <-ctx.Done():
				timer.Stop()
				return
			case <-d.stop:
				timer.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop halts the trigger goroutine.
func (d *DailyScheduler) Stop(ctx context.Context) error {
	if d.stop == nil {
		return nil
	}
	close(d.stop)
	d.stop = nil
	return nil
}
