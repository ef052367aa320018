package system

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/nerrad567/gray-logic-gateway/internal/message"
)

// DefaultPollInterval is used when Config.PollInterval is not positive.
const DefaultPollInterval = 30 * time.Second

// Config holds configuration for the performance sampler.
type Config struct {
	// PollInterval is the delay between the end of one tick and the start
	// of the next.
	PollInterval time.Duration

	// DiskPath is the mount point sampled by the default disk probe.
	DiskPath string

	// CPU, Memory and Disk override the default gopsutil probes.
	CPU    Probe
	Memory Probe
	Disk   Probe

	// Observer, when set, receives a copy of every snapshot before it is
	// handed to the listener. It runs on the sampler goroutine.
	Observer func(*data.SystemPerformanceData)
}

// listenerRef boxes the listener so it can be swapped atomically.
type listenerRef struct {
	l message.Listener
}

// PerformanceManager periodically samples host utilization and delivers
// SystemPerformanceData snapshots to a message.Listener.
//
// Thread Safety: all methods are safe for concurrent use. Start and Stop
// are serialised by a single mutex; ticks run on one goroutine and never
// overlap.
type PerformanceManager struct {
	interval time.Duration
	cpu      Probe
	memory   Probe
	disk     Probe
	observer func(*data.SystemPerformanceData)
	logger   Logger

	listener atomic.Pointer[listenerRef]

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	lastMu sync.RWMutex
	last   *data.SystemPerformanceData
}

// NewPerformanceManager creates a stopped sampler. No goroutine is started
// and no probe is read until Start.
func NewPerformanceManager(cfg Config, logger Logger) *PerformanceManager {
	logger = orNoop(logger)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.CPU == nil {
		cfg.CPU = NewCPUProbe(logger)
	}
	if cfg.Memory == nil {
		cfg.Memory = NewMemoryProbe(logger)
	}
	if cfg.Disk == nil {
		cfg.Disk = NewDiskProbe(cfg.DiskPath, logger)
	}

	return &PerformanceManager{
		interval: cfg.PollInterval,
		cpu:      cfg.CPU,
		memory:   cfg.Memory,
		disk:     cfg.Disk,
		observer: cfg.Observer,
		logger:   logger,
	}
}

// SetDataMessageListener registers the sink for snapshots. A nil listener
// clears the registration. It always returns true.
func (m *PerformanceManager) SetDataMessageListener(l message.Listener) bool {
	if l == nil {
		m.listener.Store(nil)
		return true
	}
	m.listener.Store(&listenerRef{l: l})
	return true
}

// PollInterval returns the configured delay between ticks.
func (m *PerformanceManager) PollInterval() time.Duration {
	return m.interval
}

// Start begins the sampling schedule. Starting a running sampler is a no-op.
// The schedule runs until Stop; cancelling ctx after Start returns does not
// end it, so IsRunning always reflects the last Start or Stop.
func (m *PerformanceManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		m.logger.Debug("system performance sampler already running")
		return nil
	}

	workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	m.cancel = cancel
	m.done = make(chan struct{})
	m.running = true

	go m.run(workerCtx, m.done)

	m.logger.Info("system performance sampler started", "poll_interval", m.interval.String())
	return nil
}

// Stop ends the schedule and waits for the sampling goroutine to exit. A
// tick already in progress may still deliver its snapshot. Stopping a
// sampler that is not running is a no-op.
func (m *PerformanceManager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}

	m.cancel()
	<-m.done

	m.running = false
	m.cancel = nil
	m.done = nil

	m.logger.Info("system performance sampler stopped")
	return nil
}

// IsRunning reports whether the schedule is active.
func (m *PerformanceManager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastSnapshot returns a copy of the most recent snapshot, or nil before
// the first tick.
func (m *PerformanceManager) LastSnapshot() *data.SystemPerformanceData {
	m.lastMu.RLock()
	defer m.lastMu.RUnlock()
	if m.last == nil {
		return nil
	}
	return m.last.Clone()
}

// run is the sampling loop. A single timer is reset only after a tick
// completes, giving fixed-delay scheduling.
func (m *PerformanceManager) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.tick(ctx)

		if ctx.Err() != nil {
			return
		}
		timer.Reset(m.interval)
	}
}

// tick samples every probe once and hands the snapshot off.
func (m *PerformanceManager) tick(ctx context.Context) {
	snap := m.Sample(ctx)

	m.lastMu.Lock()
	m.last = snap.Clone()
	m.lastMu.Unlock()

	if m.observer != nil {
		m.observer(snap.Clone())
	}

	ref := m.listener.Load()
	if ref == nil {
		m.logger.Debug("no listener registered, dropping system performance snapshot")
		return
	}

	// The snapshot belongs to the listener from here on.
	ref.l.HandleSystemPerformanceMessage(data.GDASystemPerfMsgResource, snap)
}

// Sample reads every probe once and returns a new snapshot named
// data.SystemPerfDataName. It does not notify the listener.
func (m *PerformanceManager) Sample(ctx context.Context) *data.SystemPerformanceData {
	snap := data.NewSystemPerformanceData()
	snap.SetCPUUtilization(m.cpu.SampleValue(ctx))
	snap.SetMemoryUtilization(m.memory.SampleValue(ctx))
	snap.SetDiskUtilization(m.disk.SampleValue(ctx))

	m.logger.Debug("sampled system performance",
		"cpu_util", snap.CPUUtilization(),
		"mem_util", snap.MemoryUtilization(),
		"disk_util", snap.DiskUtilization(),
	)
	return snap
}
