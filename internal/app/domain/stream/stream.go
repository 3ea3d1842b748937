package stream

import (
	"chatcore/internal/app/adapters/metrics"
	"chatcore/internal/app/ports"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var _ ports.StreamPort = (*Stream)(nil)

// Stream - текущее состояние трансляции, обновляется поллером Helix.
type Stream struct {
	mu sync.RWMutex

	channelID   string
	channelName string
	category    string
	title       string
	startedAt   time.Time
	isLive      atomic.Bool
	viewers     atomic.Int64
}

// Snapshot - ответ API о стриме.
type Snapshot struct {
	Live      bool
	Category  string
	Title     string
	Viewers   int
	StartedAt time.Time
}

func NewStream(channelName string) *Stream {
	s := &Stream{}
	s.SetChannelName(channelName)
	return s
}

func (s *Stream) IsLive() bool {
	return s.isLive.Load()
}

func (s *Stream) SetIslive(v bool) {
	s.isLive.Store(v)
}

func (s *Stream) Viewers() int {
	return int(s.viewers.Load())
}

func (s *Stream) ChannelID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelID
}

func (s *Stream) SetChannelID(channelID string) {
	s.mu.Lock()
	s.channelID = channelID
	s.mu.Unlock()
}

func (s *Stream) ChannelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelName
}

func (s *Stream) SetChannelName(channelName string) {
	s.mu.Lock()
	s.channelName = channelName
	s.mu.Unlock()
}

func (s *Stream) Category() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.category
}

func (s *Stream) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

func (s *Stream) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// Uptime - длительность текущего стрима, 0 если офлайн.
func (s *Stream) Uptime(now time.Time) time.Duration {
	if !s.IsLive() {
		return 0
	}
	started := s.StartedAt()
	if started.IsZero() || now.Before(started) {
		return 0
	}
	return now.Sub(started).Truncate(time.Second)
}

// Apply обновляет состояние из снапшота; офлайн сбрасывает онлайн и время старта.
func (s *Stream) Apply(snap Snapshot) {
	s.mu.Lock()
	if snap.Live {
		s.category = snap.Category
		s.title = snap.Title
		s.startedAt = snap.StartedAt
	} else {
		s.startedAt = time.Time{}
	}
	channel := s.channelName
	s.mu.Unlock()

	s.isLive.Store(snap.Live)
	if !snap.Live {
		snap.Viewers = 0
	}
	s.viewers.Store(int64(snap.Viewers))

	metrics.StreamActive.WithLabelValues(channel).Set(boolGauge(snap.Live))
	metrics.OnlineViewers.WithLabelValues(channel).Set(float64(snap.Viewers))
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func (s *Stream) String() string {
	return s.ChannelName() + " live=" + strconv.FormatBool(s.IsLive())
}
