package timers

import (
	"github.com/stretchr/testify/assert"
	"sync/atomic"
	"testing"
	"time"
)

func TestTimingWheel_Schedule(t *testing.T) {
	tw := NewTimingWheel(5*time.Millisecond, 4)
	defer tw.Stop()

	fired := make(chan time.Time, 1)
	start := time.Now()
	// задержка больше оборота колеса: 40ms при обороте в 20ms
	tw.Schedule(40*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 30*time.Millisecond, "задача не должна сработать на первом обороте")
	case <-time.After(time.Second):
		t.Fatal("задача не выполнилась")
	}
}

func TestTimingWheel_RepeatAndRemove(t *testing.T) {
	tw := NewTimingWheel(2*time.Millisecond, 8)
	defer tw.Stop()

	var n atomic.Int32
	tw.AddTimer("poll", 4*time.Millisecond, func() { n.Add(1) })

	assert.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)

	tw.RemoveTimer("poll")
	time.Sleep(10 * time.Millisecond)
	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "после удаления таймер не срабатывает")
}

func TestTimingWheel_StopIsIdempotent(t *testing.T) {
	tw := NewTimingWheel(time.Millisecond, 2)
	tw.Stop()
	tw.Stop()
}
