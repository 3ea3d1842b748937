package timers

import (
	"sync"
	"time"
)

// TimingWheel - колесо таймеров: одноразовые задачи (отложенные ответы в чат)
// и повторяющиеся (опрос статуса стрима). Задержки длиннее оборота колеса
// отсчитываются оборотами.
type TimingWheel struct {
	tickDuration time.Duration
	slots        []map[uint64]*timer
	currentPos   int
	mutex        sync.Mutex
	ticker       *time.Ticker
	done         chan struct{}
	stopOnce     sync.Once

	seq   uint64
	named map[string]uint64
}

type timer struct {
	id       uint64
	interval time.Duration
	rounds   int
	repeat   bool
	task     func()
}

func NewTimingWheel(tickDuration time.Duration, slotsCount int) *TimingWheel {
	if tickDuration <= 0 {
		tickDuration = 50 * time.Millisecond
	}
	if slotsCount <= 0 {
		slotsCount = 60
	}

	tw := &TimingWheel{
		tickDuration: tickDuration,
		slots:        make([]map[uint64]*timer, slotsCount),
		ticker:       time.NewTicker(tickDuration),
		done:         make(chan struct{}),
		named:        make(map[string]uint64),
	}
	for i := range tw.slots {
		tw.slots[i] = make(map[uint64]*timer)
	}

	go tw.start()
	return tw
}

func (tw *TimingWheel) start() {
	for {
		select {
		case <-tw.done:
			return
		case <-tw.ticker.C:
			tw.tick()
		}
	}
}

func (tw *TimingWheel) tick() {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.currentPos = (tw.currentPos + 1) % len(tw.slots)
	slot := tw.slots[tw.currentPos]

	for id, t := range slot {
		if t.rounds > 0 {
			t.rounds--
			continue
		}

		delete(slot, id)
		go t.task()

		if t.repeat {
			tw.placeLocked(t)
		}
	}
}

func (tw *TimingWheel) placeLocked(t *timer) {
	ticks := int(t.interval / tw.tickDuration)
	if ticks < 1 {
		ticks = 1
	}
	t.rounds = (ticks - 1) / len(tw.slots)
	pos := (tw.currentPos + ticks) % len(tw.slots)
	tw.slots[pos][t.id] = t
}

// Schedule выполняет task один раз через delay.
func (tw *TimingWheel) Schedule(delay time.Duration, task func()) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.seq++
	tw.placeLocked(&timer{id: tw.seq, interval: delay, task: task})
}

// AddTimer регистрирует повторяющуюся задачу; повторная регистрация id заменяет старую.
func (tw *TimingWheel) AddTimer(id string, interval time.Duration, task func()) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.removeLocked(id)
	tw.seq++
	tw.named[id] = tw.seq
	tw.placeLocked(&timer{id: tw.seq, interval: interval, repeat: true, task: task})
}

func (tw *TimingWheel) RemoveTimer(id string) {
	tw.mutex.Lock()
	defer tw.mutex.Unlock()

	tw.removeLocked(id)
}

func (tw *TimingWheel) removeLocked(id string) {
	seq, ok := tw.named[id]
	if !ok {
		return
	}
	delete(tw.named, id)
	for _, s := range tw.slots {
		delete(s, seq)
	}
}

func (tw *TimingWheel) Stop() {
	tw.stopOnce.Do(func() {
		tw.ticker.Stop()
		close(tw.done)
	})
}
