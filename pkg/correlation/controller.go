package correlation

import "time"

// SerialController is a Controller for replay-style pipelines that
// drive the engine from one goroutine. Scheduled tasks are held until
// the owner calls RunDue between records, so record handling and the
// sweep never run concurrently.
type SerialController struct {
	now       func() time.Time
	lastAcked int64
	ackCount  int64
	timers    []serialTimer
}

type serialTimer struct {
	due  time.Time
	task func()
}

func NewSerialController(now func() time.Time) *SerialController {
	if now == nil {
		now = time.Now
	}
	return &SerialController{now: now}
}

func (c *SerialController) AcknowledgePosition(position int64) {
	c.lastAcked = position
	c.ackCount++
}

// LastAcknowledged returns the most recently acknowledged position.
func (c *SerialController) LastAcknowledged() int64 {
	return c.lastAcked
}

// Acknowledged returns the total number of acknowledged records.
func (c *SerialController) Acknowledged() int64 {
	return c.ackCount
}

func (c *SerialController) ScheduleTask(delay time.Duration, task func()) {
	c.timers = append(c.timers, serialTimer{due: c.now().Add(delay), task: task})
}

// RunDue fires every task whose delay has elapsed, in scheduling
// order. Tasks scheduled by a running task wait for the next call.
func (c *SerialController) RunDue() {
	now := c.now()

	pending := c.timers
	c.timers = nil

	var remaining []serialTimer
	for _, tm := range pending {
		if tm.due.After(now) {
			remaining = append(remaining, tm)
			continue
		}
		tm.task()
	}
	c.timers = append(remaining, c.timers...)
}
