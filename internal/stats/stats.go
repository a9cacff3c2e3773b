package stats

import (
	"runtime"
	"sync"
	"time"

	"go.uber.org/atomic"
)

var Version = "0.1.0"
var Commit = "HEAD"
var BuildDate = "now"

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Version                string           `json:"version"`
	OS                     string           `json:"os"`
	Keys                   int              `json:"keys"`
	TotalCommandsProcessed int64            `json:"total_commands_processed"`
	CommandsByType         map[string]int64 `json:"commands_by_type"`
	KeyspaceHits           int64            `json:"keyspace_hits"`
	KeyspaceMisses         int64            `json:"keyspace_misses"`
	RejectedCommands       int64            `json:"rejected_commands"`
	UptimeSeconds          int64            `json:"uptime_in_seconds"`
}

// Manager tracks operation counters. Hot counters are atomics; the per
// command map is guarded by mu.
type Manager struct {
	totalCommands *atomic.Int64
	hits          *atomic.Int64
	misses        *atomic.Int64
	rejected      *atomic.Int64

	mu             sync.Mutex
	commandsByType map[string]int64
	startTime      time.Time
}

// NewManager creates a manager whose uptime starts now
func NewManager() *Manager {
	return &Manager{
		totalCommands:  atomic.NewInt64(0),
		hits:           atomic.NewInt64(0),
		misses:         atomic.NewInt64(0),
		rejected:       atomic.NewInt64(0),
		commandsByType: make(map[string]int64),
		startTime:      time.Now(),
	}
}

// RecordCommand counts one processed command
func (m *Manager) RecordCommand(name string) {
	m.totalCommands.Inc()
	m.mu.Lock()
	m.commandsByType[name]++
	m.mu.Unlock()
}

// RecordLookup counts a keyspace hit or miss
func (m *Manager) RecordLookup(found bool) {
	if found {
		m.hits.Inc()
	} else {
		m.misses.Inc()
	}
}

// RecordRejected counts a command refused for bad input
func (m *Manager) RecordRejected() {
	m.rejected.Inc()
}

// Snapshot copies the current counters. keys is supplied by the caller
// since the store is not owned here.
func (m *Manager) Snapshot(keys int) Snapshot {
	m.mu.Lock()
	byType := make(map[string]int64, len(m.commandsByType))
	for k, v := range m.commandsByType {
		byType[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		Version:                Version,
		OS:                     runtime.GOOS + "-" + runtime.GOARCH,
		Keys:                   keys,
		TotalCommandsProcessed: m.totalCommands.Load(),
		CommandsByType:         byType,
		KeyspaceHits:           m.hits.Load(),
		KeyspaceMisses:         m.misses.Load(),
		RejectedCommands:       m.rejected.Load(),
		UptimeSeconds:          int64(time.Since(m.startTime) / time.Second),
	}
}
