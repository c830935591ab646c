package coordinator

import (
	"fmt"
	"sync/atomic"
)

// Metrics counts what the command loop has done since startup.
type Metrics struct {
	taskPicked     int64
	pickEmpty      int64
	taskReported   int64
	versionApplied int64
}

func (m *Metrics) incrPicked()   { atomic.AddInt64(&m.taskPicked, 1) }
func (m *Metrics) incrEmpty()    { atomic.AddInt64(&m.pickEmpty, 1) }
func (m *Metrics) incrReported() { atomic.AddInt64(&m.taskReported, 1) }
func (m *Metrics) incrApplied()  { atomic.AddInt64(&m.versionApplied, 1) }

type MetricsSnapshot struct {
	TaskPicked     int64
	PickEmpty      int64
	TaskReported   int64
	VersionApplied int64
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TaskPicked:     atomic.LoadInt64(&m.taskPicked),
		PickEmpty:      atomic.LoadInt64(&m.pickEmpty),
		TaskReported:   atomic.LoadInt64(&m.taskReported),
		VersionApplied: atomic.LoadInt64(&m.versionApplied),
	}
}

func (s MetricsSnapshot) String() string {
	return fmt.Sprintf("picked:%d empty:%d reported:%d applied:%d",
		s.TaskPicked, s.PickEmpty, s.TaskReported, s.VersionApplied)
}
