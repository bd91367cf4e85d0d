package observability

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Instance identifies this server process in diagnostics.
type Instance struct {
	ID        string    `json:"instanceId"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startTime"`
}

// NewInstance stamps a fresh identity for the current process.
func NewInstance() Instance {
	return Instance{
		ID:        "instance-" + uuid.NewString(),
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
	}
}

// Status tracks liveness for the health endpoint.
type Status struct {
	Instance Instance

	mu            sync.RWMutex
	lastHeartbeat time.Time
	inFlight      atomic.Int64
	now           func() time.Time
}

// StatusSnapshot is a point-in-time copy of Status.
type StatusSnapshot struct {
	Instance      Instance
	Uptime        time.Duration
	LastHeartbeat time.Time
	InFlight      int64
}

func NewStatus(inst Instance) *Status {
	return &Status{
		Instance:      inst,
		lastHeartbeat: time.Now(),
		now:           time.Now,
	}
}

// Heartbeat updates the last heartbeat time.
func (s *Status) Heartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastHeartbeat = s.now()
}

// Begin marks a request as in flight; the returned func ends it.
func (s *Status) Begin() func() {
	s.inFlight.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { s.inFlight.Add(-1) })
	}
}

// Snapshot retrieves a copy of the current status.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{
		Instance:      s.Instance,
		Uptime:        s.now().Sub(s.Instance.StartedAt),
		LastHeartbeat: s.lastHeartbeat,
		InFlight:      s.inFlight.Load(),
	}
}
