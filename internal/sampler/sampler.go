package sampler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/sysreport/internal/model"
)

// ErrUnavailable means the OS counter subsystem could not be read at all.
var ErrUnavailable = errors.New("system counters unavailable on this platform")

// procHandle is the subset of *process.Process the sampler reads.
type procHandle interface {
	NameWithContext(ctx context.Context) (string, error)
	PercentWithContext(ctx context.Context, interval time.Duration) (float64, error)
	MemoryInfoWithContext(ctx context.Context) (*process.MemoryInfoStat, error)
}

// OS readers; tests swap these out.
var (
	cpuTimes      = cpu.TimesWithContext
	cpuCounts     = cpu.CountsWithContext
	virtualMemory = mem.VirtualMemoryWithContext
	swapMemory    = mem.SwapMemoryWithContext
	partitions    = disk.PartitionsWithContext
	diskUsage     = disk.UsageWithContext
	loadAvg       = load.AvgWithContext
	netCounters   = net.IOCountersWithContext
	hostInfo      = host.InfoWithContext
	processPids   = process.PidsWithContext
	openProcess   = func(ctx context.Context, pid int32) (procHandle, error) {
		return process.NewProcessWithContext(ctx, pid)
	}
	now = time.Now
)

// Sampler re-reads OS counters on every Refresh. CPU figures are deltas
// against the previous Refresh, so a meaningful snapshot needs two calls
// separated by a real-time interval (see Collect).
type Sampler struct {
	log *zap.Logger

	prevCore []cpu.TimesStat
	procs    map[int32]procHandle

	cur model.Snapshot
}

func New(log *zap.Logger) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{
		log:   log.Named("sampler"),
		procs: make(map[int32]procHandle),
	}
}

// Collect runs the two-refresh protocol: refresh, wait interval, refresh, then
// freeze the result.
func Collect(ctx context.Context, s *Sampler, interval time.Duration) (model.Snapshot, error) {
	if err := s.Refresh(ctx); err != nil {
		return model.Snapshot{}, err
	}
	if interval > 0 {
		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return model.Snapshot{}, ctx.Err()
		case <-t.C:
		}
	}
	if err := s.Refresh(ctx); err != nil {
		return model.Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Refresh re-reads every counter into internal state. Missing sources leave
// zero values; only a platform with neither CPU times nor memory info fails.
func (s *Sampler) Refresh(ctx context.Context) error {
	next := model.Snapshot{TakenAt: now()}

	cpuStat, cpuErr := s.cpu(ctx)
	next.CPU = cpuStat

	memStat, memErr := s.memory(ctx)
	next.Memory = memStat

	if cpuErr != nil && memErr != nil {
		return fmt.Errorf("%w: cpu: %v; memory: %v", ErrUnavailable, cpuErr, memErr)
	}

	next.Disks = s.disks(ctx)
	next.Processes = s.processes(ctx)
	next.Interfaces = s.interfaces(ctx)
	next.Host = s.host(ctx)
	next.Load = s.load(ctx)

	s.cur = next
	return nil
}

// Snapshot returns a copy of the state captured by the last Refresh.
func (s *Sampler) Snapshot() model.Snapshot { return s.cur.Clone() }

// cpu computes per-core busy percent from the times delta.
func (s *Sampler) cpu(ctx context.Context) (model.CPU, error) {
	coreTimes, err := cpuTimes(ctx, true)
	if err != nil || len(coreTimes) == 0 {
		if err == nil {
			err = errors.New("no cpu times reported")
		}
		s.log.Debug("cpu times unavailable", zap.Error(err))
		return model.CPU{}, err
	}

	perCore := make([]float64, len(coreTimes))
	for i, c := range coreTimes {
		if i >= len(s.prevCore) {
			continue
		}
		perCore[i] = busyPercent(s.prevCore[i], c)
	}
	s.prevCore = coreTimes

	var sum float64
	for _, p := range perCore {
		sum += p
	}
	cores, err := cpuCounts(ctx, true)
	if err != nil || cores <= 0 {
		cores = len(coreTimes)
	}
	return model.CPU{
		Usage:   sum / float64(len(perCore)),
		PerCore: perCore,
		Cores:   cores,
	}, nil
}

func busyPercent(prev, cur cpu.TimesStat) float64 {
	dt := cur.Total() - prev.Total()
	di := (cur.Idle + cur.Iowait) - (prev.Idle + prev.Iowait)
	if dt <= 0 {
		return 0
	}
	pct := 100 * (1 - di/dt)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

func (s *Sampler) memory(ctx context.Context) (model.Memory, error) {
	var out model.Memory
	vm, err := virtualMemory(ctx)
	if err != nil || vm == nil {
		if err == nil {
			err = errors.New("no memory stats reported")
		}
		s.log.Debug("virtual memory unavailable", zap.Error(err))
	} else {
		out.TotalBytes = vm.Total
		out.UsedBytes = vm.Used
		out.AvailableBytes = vm.Available
	}
	// No swap configured is not an error.
	if sw, swErr := swapMemory(ctx); swErr == nil && sw != nil {
		out.SwapTotal = sw.Total
		out.SwapUsed = sw.Used
	}
	return out, err
}

func (s *Sampler) disks(ctx context.Context) []model.Disk {
	parts, err := partitions(ctx, false)
	if err != nil {
		s.log.Debug("partitions unavailable", zap.Error(err))
	}
	var out []model.Disk
	for _, p := range parts {
		u, err := diskUsage(ctx, p.Mountpoint)
		if err != nil || u == nil {
			continue
		}
		used := uint64(0)
		if u.Total > u.Free {
			used = u.Total - u.Free
		}
		out = append(out, model.Disk{
			Name:           p.Device,
			MountPoint:     p.Mountpoint,
			TotalBytes:     u.Total,
			UsedBytes:      used,
			AvailableBytes: u.Free,
		})
	}
	return out
}

// processes keeps handles across refreshes so PercentWithContext(0) reports
// the delta since the previous call. Vanished processes are dropped.
func (s *Sampler) processes(ctx context.Context) []model.Process {
	pids, err := processPids(ctx)
	if err != nil {
		s.log.Debug("process table unavailable", zap.Error(err))
		return nil
	}
	live := make(map[int32]procHandle, len(pids))
	out := make([]model.Process, 0, len(pids))
	for _, pid := range pids {
		h, ok := s.procs[pid]
		if !ok {
			if h, err = openProcess(ctx, pid); err != nil {
				continue
			}
		}
		name, err := h.NameWithContext(ctx)
		if err != nil {
			continue
		}
		live[pid] = h
		cpuPct, _ := h.PercentWithContext(ctx, 0)
		var rss uint64
		if mi, err := h.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			rss = mi.RSS
		}
		out = append(out, model.Process{PID: pid, Name: name, CPU: cpuPct, RSSBytes: rss})
	}
	s.procs = live
	return out
}

func (s *Sampler) interfaces(ctx context.Context) []model.NetInterface {
	counters, err := netCounters(ctx, true)
	if err != nil {
		s.log.Debug("network counters unavailable", zap.Error(err))
		return nil
	}
	out := make([]model.NetInterface, 0, len(counters))
	for _, c := range counters {
		out = append(out, model.NetInterface{Name: c.Name, RxBytes: c.BytesRecv, TxBytes: c.BytesSent})
	}
	return out
}

func (s *Sampler) host(ctx context.Context) model.Host {
	info, err := hostInfo(ctx)
	if err != nil || info == nil {
		s.log.Debug("host info unavailable", zap.Error(err))
		return model.Host{}
	}
	h := model.Host{
		OSName:        info.Platform,
		OSVersion:     info.PlatformVersion,
		KernelVersion: info.KernelVersion,
		Uptime:        time.Duration(info.Uptime) * time.Second,
	}
	if h.OSName == "" {
		h.OSName = info.OS
	}
	if info.BootTime > 0 {
		h.BootTime = time.Unix(int64(info.BootTime), 0)
	}
	return h
}

func (s *Sampler) load(ctx context.Context) model.Load {
	avg, err := loadAvg(ctx)
	if err != nil || avg == nil {
		s.log.Debug("load average unavailable", zap.Error(err))
		return model.Load{}
	}
	return model.Load{Load1: avg.Load1, Load5: avg.Load5, Load15: avg.Load15}
}
