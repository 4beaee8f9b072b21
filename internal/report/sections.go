package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/sysreport/internal/model"
	"github.com/Dicklesworthstone/sysreport/internal/probe"
	"github.com/Dicklesworthstone/sysreport/internal/rank"
)

const (
	notConfigured = "Not configured"
	unknown       = "Unknown"
	timeLayout    = "2006-01-02 15:04:05"
)

func topTitle(n int, metric string) string {
	return fmt.Sprintf("TOP %d PROCESSES BY %s USAGE", n, metric)
}

func kv(key, value string) Entry { return Entry{Key: key, Value: value} }

func text(value string) Entry { return Entry{Value: value, Nested: true} }

func (a *Assembler) cpuSection(s *Section, snap model.Snapshot) {
	c := snap.CPU
	s.Entries = append(s.Entries,
		kv("CPU Usage", percent(c.Usage)),
		kv("CPU Idle", percent(100-c.Usage)),
		kv("CPU Cores", strconv.Itoa(c.Cores)),
	)
	if len(c.PerCore) == 0 {
		return
	}
	parts := make([]string, len(c.PerCore))
	for i, p := range c.PerCore {
		parts[i] = fmt.Sprintf("cpu%d %s", i, percent(p))
	}
	s.Entries = append(s.Entries, kv("Per-core Usage", strings.Join(parts, ", ")))
}

func (a *Assembler) memorySection(s *Section, snap model.Snapshot) {
	m := snap.Memory
	s.Entries = append(s.Entries,
		kv("Total Memory", gb(m.TotalBytes)),
		kv("Used Memory", fmt.Sprintf("%s (%s)", gb(m.UsedBytes), percent(rank.Percent(m.UsedBytes, m.TotalBytes)))),
		kv("Available Memory", fmt.Sprintf("%s (%s)", gb(m.AvailableBytes), percent(rank.Percent(m.AvailableBytes, m.TotalBytes)))),
	)
	if m.SwapTotal == 0 {
		s.Entries = append(s.Entries, kv("Swap", notConfigured))
		return
	}
	s.Entries = append(s.Entries,
		kv("Total Swap", gb(m.SwapTotal)),
		kv("Used Swap", fmt.Sprintf("%s (%s)", gb(m.SwapUsed), percent(rank.Percent(m.SwapUsed, m.SwapTotal)))),
	)
}

func (a *Assembler) diskSection(s *Section, snap model.Snapshot) {
	if len(snap.Disks) == 0 {
		s.Entries = append(s.Entries, kv("Disks", notConfigured))
		return
	}
	t := &Table{Columns: []Column{
		{"Filesystem", 20}, {"Size", 10}, {"Used", 10}, {"Available", 10}, {"Use%", 8}, {"Mounted on", 0},
	}}
	for _, d := range snap.Disks {
		t.Rows = append(t.Rows, []string{
			d.Name,
			tableGB(d.TotalBytes),
			tableGB(d.UsedBytes),
			tableGB(d.AvailableBytes),
			fmt.Sprintf("%.1f%%", rank.Percent(d.UsedBytes, d.TotalBytes)),
			d.MountPoint,
		})
	}
	s.Table = t
}

func (a *Assembler) topCPUSection(ctx context.Context, s *Section, snap model.Snapshot) {
	top := rank.TopByCPU(snap.Processes, a.topN)
	if len(top) == 0 {
		s.Entries = append(s.Entries, text("No processes sampled"))
		return
	}
	t := &Table{Columns: []Column{{"PID", 8}, {"USER", 12}, {"CPU%", 8}, {"COMMAND", 0}}}
	for _, p := range top {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(int(p.PID)),
			a.owners.ResolveOwner(ctx, p.PID),
			fmt.Sprintf("%.2f", p.CPU),
			p.Name,
		})
	}
	s.Table = t
}

func (a *Assembler) topMemorySection(ctx context.Context, s *Section, snap model.Snapshot) {
	top := rank.TopByMemory(snap.Processes, a.topN)
	if len(top) == 0 {
		s.Entries = append(s.Entries, text("No processes sampled"))
		return
	}
	t := &Table{Columns: []Column{{"PID", 8}, {"USER", 12}, {"MEM%", 8}, {"MEMORY", 10}, {"COMMAND", 0}}}
	for _, p := range top {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(int(p.PID)),
			a.owners.ResolveOwner(ctx, p.PID),
			fmt.Sprintf("%.2f", rank.Percent(p.RSSBytes, snap.Memory.TotalBytes)),
			tableMB(p.RSSBytes),
			p.Name,
		})
	}
	s.Table = t
}

func (a *Assembler) systemSection(s *Section, snap model.Snapshot) {
	h, l := snap.Host, snap.Load
	osName := strings.TrimSpace(orUnknown(h.OSName) + " " + orUnknown(h.OSVersion))
	boot := unknown
	if !h.BootTime.IsZero() {
		boot = h.BootTime.Format(timeLayout)
	}
	s.Entries = append(s.Entries,
		kv("OS", osName),
		kv("Kernel", orUnknown(h.KernelVersion)),
		kv("Uptime", SplitUptime(uint64(h.Uptime.Seconds())).String()),
		kv("Load Average", fmt.Sprintf("%.2f, %.2f, %.2f", l.Load1, l.Load5, l.Load15)),
		kv("Load per core", fmt.Sprintf("%.2f", LoadPerCore(l.Load1, snap.CPU.Cores))),
		kv("Boot time", boot),
	)
}

func (a *Assembler) networkSection(s *Section, snap model.Snapshot) {
	if len(snap.Interfaces) == 0 {
		s.Entries = append(s.Entries, kv("Interfaces", notConfigured))
		return
	}
	for _, n := range snap.Interfaces {
		s.Entries = append(s.Entries, Entry{
			Key:    n.Name,
			Value:  fmt.Sprintf("RX: %s, TX: %s", mb(n.RxBytes), mb(n.TxBytes)),
			Nested: true,
		})
	}
}

func (a *Assembler) portsSection(ctx context.Context, s *Section) {
	res := a.probes.ListeningPorts(ctx)
	if !res.OK() {
		s.Entries = append(s.Entries, kv("Listening ports", unavailable(res.Err)))
		return
	}
	s.Entries = append(s.Entries, kv("Listening ports", strconv.Itoa(res.Value)))
}

func (a *Assembler) usersSection(ctx context.Context, s *Section) {
	res := a.probes.Sessions(ctx, a.sessionLimit)
	if !res.OK() {
		s.Entries = append(s.Entries, text("Unable to retrieve user information: "+unavailable(res.Err)))
		return
	}
	for _, line := range res.Value.Lines {
		s.Entries = append(s.Entries, text(line))
	}
	s.Entries = append(s.Entries, kv("Total logged in users", strconv.Itoa(res.Value.Total)))
}

func (a *Assembler) failedLoginsSection(ctx context.Context, s *Section) {
	res := a.probes.FailedLogins(ctx, a.failedLoginLimit)
	switch {
	case !res.OK() && res.Err.Kind == probe.PermissionDenied:
		s.Entries = append(s.Entries, text("Unable to retrieve failed login information (may require elevated privileges)"))
	case !res.OK():
		s.Entries = append(s.Entries, text("Unable to retrieve failed login information: "+unavailable(res.Err)))
	case len(res.Value) == 0:
		s.Entries = append(s.Entries, text("No failed login attempts found"))
	default:
		for _, line := range res.Value {
			s.Entries = append(s.Entries, text(line))
		}
	}
}

// unavailable renders a probe error as a placeholder value.
func unavailable(err *probe.Error) string {
	if err == nil {
		return "unavailable"
	}
	switch err.Kind {
	case probe.BinaryNotFound:
		return fmt.Sprintf("unavailable (%s not found)", err.Command)
	case probe.PermissionDenied:
		return fmt.Sprintf("unavailable (%s: permission denied)", err.Command)
	case probe.ParseEmpty:
		return fmt.Sprintf("unavailable (%s produced no output)", err.Command)
	default:
		return fmt.Sprintf("unavailable (%s %s)", err.Command, err.Reason)
	}
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return unknown
	}
	return s
}
