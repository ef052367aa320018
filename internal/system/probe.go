package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-gateway/internal/data"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// Probe names.
const (
	CPUProbeName    = "cpu_util"
	MemoryProbeName = "mem_util"
	DiskProbeName   = "disk_util"
)

// DefaultDiskPath is the mount point sampled when none is configured.
const DefaultDiskPath = "/"

var errNoCPUSample = errors.New("no cpu sample returned")

// Probe reads one utilization percentage from the host.
type Probe interface {
	// Name identifies the probe in logs.
	Name() string

	// SampleValue returns the current utilization in percent. It never
	// fails: any fault is logged and reported as 0.0.
	SampleValue(ctx context.Context) float64
}

// Logger defines the logging interface used by probes and the sampler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func orNoop(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// sample runs read and converts errors and panics into 0.0.
func sample(ctx context.Context, logger Logger, name string, read func(context.Context) (float64, error)) (v float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("utilization probe panicked", "probe", name, "panic", fmt.Sprint(r))
			v = data.DefaultVal
		}
	}()

	v, err := read(ctx)
	if err != nil {
		logger.Warn("utilization probe failed", "probe", name, "error", err)
		return data.DefaultVal
	}
	return v
}

// percentOf returns used/total*100, or 0 when total is zero.
func percentOf(used, total uint64) float64 {
	if total == 0 {
		return data.DefaultVal
	}
	return float64(used) / float64(total) * 100
}

// CPUProbe reports aggregate CPU utilization since the previous call.
type CPUProbe struct {
	logger  Logger
	percent func(ctx context.Context, interval time.Duration, perCPU bool) ([]float64, error)
}

// NewCPUProbe creates a CPU probe backed by gopsutil.
func NewCPUProbe(logger Logger) *CPUProbe {
	return &CPUProbe{logger: orNoop(logger), percent: cpu.PercentWithContext}
}

// Name returns CPUProbeName.
func (*CPUProbe) Name() string { return CPUProbeName }

// SampleValue returns the CPU utilization percentage.
func (p *CPUProbe) SampleValue(ctx context.Context) float64 {
	return sample(ctx, p.logger, CPUProbeName, func(ctx context.Context) (float64, error) {
		// A zero interval compares against the previous call instead of blocking.
		pct, err := p.percent(ctx, 0, false)
		if err != nil {
			return 0, err
		}
		if len(pct) == 0 {
			return 0, errNoCPUSample
		}
		return pct[0], nil
	})
}

// MemoryProbe reports virtual memory utilization.
type MemoryProbe struct {
	logger  Logger
	virtual func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewMemoryProbe creates a memory probe backed by gopsutil.
func NewMemoryProbe(logger Logger) *MemoryProbe {
	return &MemoryProbe{logger: orNoop(logger), virtual: mem.VirtualMemoryWithContext}
}

// Name returns MemoryProbeName.
func (*MemoryProbe) Name() string { return MemoryProbeName }

// SampleValue returns used memory as a percentage of total memory.
func (p *MemoryProbe) SampleValue(ctx context.Context) float64 {
	return sample(ctx, p.logger, MemoryProbeName, func(ctx context.Context) (float64, error) {
		vm, err := p.virtual(ctx)
		if err != nil {
			return 0, err
		}
		return percentOf(vm.Used, vm.Total), nil
	})
}

// DiskProbe reports utilization of the filesystem holding Path.
type DiskProbe struct {
	path   string
	logger Logger
	usage  func(ctx context.Context, path string) (*disk.UsageStat, error)
}

// NewDiskProbe creates a disk probe for the filesystem mounted at path.
// An empty path samples DefaultDiskPath.
func NewDiskProbe(path string, logger Logger) *DiskProbe {
	if path == "" {
		path = DefaultDiskPath
	}
	return &DiskProbe{path: path, logger: orNoop(logger), usage: disk.UsageWithContext}
}

// Name returns DiskProbeName.
func (*DiskProbe) Name() string { return DiskProbeName }

// Path returns the sampled mount path.
func (p *DiskProbe) Path() string { return p.path }

// SampleValue returns used space as a percentage of total space. A missing
// or unreadable path yields 0.0.
func (p *DiskProbe) SampleValue(ctx context.Context) float64 {
	return sample(ctx, p.logger, DiskProbeName, func(ctx context.Context) (float64, error) {
		u, err := p.usage(ctx, p.path)
		if err != nil {
			return 0, fmt.Errorf("disk usage of %s: %w", p.path, err)
		}
		return percentOf(u.Used, u.Total), nil
	})
}
