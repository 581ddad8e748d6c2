package correlation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSerialControllerAcknowledge(t *testing.T) {
	c := NewSerialController(nil)

	c.AcknowledgePosition(10)
	c.AcknowledgePosition(11)

	assert.Equal(t, int64(11), c.LastAcknowledged())
	assert.Equal(t, int64(2), c.Acknowledged())
}

func TestSerialControllerRunDue(t *testing.T) {
	now := time.UnixMilli(0)
	c := NewSerialController(func() time.Time { return now })

	var fired []string
	c.ScheduleTask(10*time.Second, func() { fired = append(fired, "a") })
	c.ScheduleTask(20*time.Second, func() { fired = append(fired, "b") })

	c.RunDue()
	assert.Empty(t, fired)

	now = now.Add(10 * time.Second)
	c.RunDue()
	assert.Equal(t, []string{"a"}, fired)

	now = now.Add(10 * time.Second)
	c.RunDue()
	assert.Equal(t, []string{"a", "b"}, fired)
}

func TestSerialControllerRearmedTaskWaits(t *testing.T) {
	now := time.UnixMilli(0)
	c := NewSerialController(func() time.Time { return now })

	var fires int
	var task func()
	task = func() {
		fires++
		c.ScheduleTask(10*time.Second, task)
	}
	c.ScheduleTask(10*time.Second, task)

	// A task that re-arms itself must not fire twice in one pass even
	// when far past due.
	now = now.Add(time.Hour)
	c.RunDue()
	assert.Equal(t, 1, fires)

	c.RunDue()
	assert.Equal(t, 1, fires)

	now = now.Add(10 * time.Second)
	c.RunDue()
	assert.Equal(t, 2, fires)
}
