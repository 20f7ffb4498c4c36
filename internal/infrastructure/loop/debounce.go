package loop

import "time"

// Debouncer coalesces bursts of triggers into one call of fn, made once no
// trigger has arrived for the configured delay.
type Debouncer struct {
	sched Scheduler
	delay time.Duration
	fn    func()
	timer Timer
}

// NewDebouncer creates a debouncer. fn runs on the scheduler's loop.
func NewDebouncer(sched Scheduler, delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{sched: sched, delay: delay, fn: fn}
}

// Trigger (re)starts the quiet period.
func (d *Debouncer) Trigger() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(d.delay, func() {
		d.timer = nil
		d.fn()
	})
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	return d.timer != nil
}

// Stop drops any scheduled call.
func (d *Debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
