package system

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
)

// fixedProbe returns a constant value and counts calls.
type fixedProbe struct {
	name  string
	value float64
	calls atomic.Int64
}

func (p *fixedProbe) Name() string { return p.name }

func (p *fixedProbe) SampleValue(context.Context) float64 {
	p.calls.Add(1)
	return p.value
}

// slowProbe blocks for delay and tracks concurrent callers.
type slowProbe struct {
	delay   time.Duration
	active  atomic.Int32
	overlap atomic.Bool
}

func (p *slowProbe) Name() string { return "slow" }

func (p *slowProbe) SampleValue(context.Context) float64 {
	if p.active.Add(1) > 1 {
		p.overlap.Store(true)
	}
	time.Sleep(p.delay)
	p.active.Add(-1)
	return 1
}

// perfRecorder is a message.Listener that records performance snapshots.
type perfRecorder struct {
	mu    sync.Mutex
	res   []data.ResourceName
	snaps []*data.SystemPerformanceData
}

func (r *perfRecorder) HandleActuatorCommandResponse(data.ResourceName, *data.ActuatorData) bool {
	return false
}

func (r *perfRecorder) HandleActuatorCommandRequest(data.ResourceName, *data.ActuatorData) bool {
	return false
}

func (r *perfRecorder) HandleIncomingMessage(data.ResourceName, string) bool { return false }

func (r *perfRecorder) HandleSensorMessage(data.ResourceName, *data.SensorData) bool { return false }

func (r *perfRecorder) HandleSystemPerformanceMessage(res data.ResourceName, d *data.SystemPerformanceData) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res = append(r.res, res)
	r.snaps = append(r.snaps, d)
	return true
}

func (r *perfRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *perfRecorder) first() (data.ResourceName, *data.SystemPerformanceData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.res[0], r.snaps[0]
}

func newTestManager(interval time.Duration) (*PerformanceManager, *fixedProbe) {
	cpu := &fixedProbe{name: CPUProbeName, value: 12.5}
	pm := NewPerformanceManager(Config{
		PollInterval: interval,
		CPU:          cpu,
		Memory:       &fixedProbe{name: MemoryProbeName, value: 40.0},
		Disk:         &fixedProbe{name: DiskProbeName, value: 77.3},
	}, nil)
	return pm, cpu
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewPerformanceManagerDefaults(t *testing.T) {
	pm := NewPerformanceManager(Config{}, nil)

	if pm.PollInterval() != DefaultPollInterval {
		t.Errorf("PollInterval() = %v, want %v", pm.PollInterval(), DefaultPollInterval)
	}
	if pm.IsRunning() {
		t.Error("new manager should not be running")
	}
	if pm.LastSnapshot() != nil {
		t.Error("LastSnapshot() before first tick should be nil")
	}
	disk, ok := pm.disk.(*DiskProbe)
	if !ok || disk.Path() != DefaultDiskPath {
		t.Errorf("default disk probe = %#v, want DiskProbe on %q", pm.disk, DefaultDiskPath)
	}
}

func TestStopBeforeStart(t *testing.T) {
	pm, _ := newTestManager(time.Hour)

	if err := pm.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v", err)
	}
	if pm.IsRunning() {
		t.Error("manager should not be running")
	}
}

func TestStartTwiceRunsOneSchedule(t *testing.T) {
	pm, _ := newTestManager(20 * time.Millisecond)
	slow := &slowProbe{delay: 15 * time.Millisecond}
	pm.cpu = slow

	ctx := context.Background()
	if err := pm.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	done := pm.done
	if err := pm.Start(ctx); err != nil {
		t.Fatalf("second Start() error = %v", err)
	}
	if pm.done != done {
		t.Error("second Start() replaced the running schedule")
	}

	time.Sleep(150 * time.Millisecond)
	if err := pm.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if slow.overlap.Load() {
		t.Error("ticks overlapped")
	}
}

func TestTickDeliversSnapshot(t *testing.T) {
	pm, _ := newTestManager(10 * time.Millisecond)
	rec := &perfRecorder{}
	pm.SetDataMessageListener(rec)

	var observed atomic.Int32
	pm.observer = func(*data.SystemPerformanceData) { observed.Add(1) }

	if err := pm.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return rec.count() > 0 })
	if err := pm.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	res, snap := rec.first()
	if res != data.GDASystemPerfMsgResource {
		t.Errorf("resource = %q, want %q", res, data.GDASystemPerfMsgResource)
	}
	if snap.Name() != data.SystemPerfDataName {
		t.Errorf("Name() = %q, want %q", snap.Name(), data.SystemPerfDataName)
	}
	if snap.CPUUtilization() != 12.5 || snap.MemoryUtilization() != 40.0 || snap.DiskUtilization() != 77.3 {
		t.Errorf("snapshot = %s, want cpu=12.5 mem=40 disk=77.3", snap)
	}
	if observed.Load() == 0 {
		t.Error("observer was not called")
	}

	last := pm.LastSnapshot()
	if last == nil || last == snap {
		t.Fatal("LastSnapshot() should be a copy of the delivered snapshot")
	}
}

func TestNoTickAfterStop(t *testing.T) {
	pm, cpu := newTestManager(10 * time.Millisecond)

	if err := pm.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return cpu.calls.Load() > 0 })
	if err := pm.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	calls := cpu.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := cpu.calls.Load(); got != calls {
		t.Errorf("probe sampled %d more times after Stop()", got-calls)
	}

	// Stopping again is a no-op.
	if err := pm.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	pm, cpu := newTestManager(10 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := pm.Start(ctx); err != nil {
			t.Fatalf("Start() #%d error = %v", i, err)
		}
		if !pm.IsRunning() {
			t.Fatalf("IsRunning() after Start() #%d = false", i)
		}
		if err := pm.Stop(); err != nil {
			t.Fatalf("Stop() #%d error = %v", i, err)
		}
	}

	if err := pm.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return cpu.calls.Load() > 0 })
	_ = pm.Stop()
}

func TestCallerContextCancelDoesNotStopSchedule(t *testing.T) {
	pm, cpu := newTestManager(10 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	if err := pm.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	// A second Start is a no-op; the original schedule keeps ticking.
	if err := pm.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return pm.LastSnapshot() != nil })
	if !pm.IsRunning() {
		t.Error("IsRunning() = false while the schedule is ticking")
	}

	if err := pm.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if pm.IsRunning() {
		t.Error("IsRunning() after Stop() = true")
	}
	calls := cpu.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if got := cpu.calls.Load(); got != calls {
		t.Errorf("probe read %d more times after Stop()", got-calls)
	}
}

func TestMissingListenerDropsSnapshot(t *testing.T) {
	pm, cpu := newTestManager(10 * time.Millisecond)

	if err := pm.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, time.Second, func() bool { return pm.LastSnapshot() != nil })
	_ = pm.Stop()

	if cpu.calls.Load() == 0 {
		t.Error("probes were not sampled")
	}
}

func TestDiskFailureYieldsZeroInSnapshot(t *testing.T) {
	disk := NewDiskProbe("/definitely/not/mounted", nil)
	pm := NewPerformanceManager(Config{
		CPU:    &fixedProbe{value: 1},
		Memory: &fixedProbe{value: 2},
		Disk:   disk,
	}, nil)

	snap := pm.Sample(context.Background())
	if snap.DiskUtilization() != 0 {
		t.Errorf("DiskUtilization() = %v, want 0", snap.DiskUtilization())
	}
	if snap.CPUUtilization() != 1 || snap.MemoryUtilization() != 2 {
		t.Errorf("other probes lost: %s", snap)
	}
}

func TestClearListener(t *testing.T) {
	pm, _ := newTestManager(time.Hour)
	pm.SetDataMessageListener(&perfRecorder{})
	pm.SetDataMessageListener(nil)

	if pm.listener.Load() != nil {
		t.Error("listener should be cleared")
	}
}
