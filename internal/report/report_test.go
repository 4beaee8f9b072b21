package report

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/sysreport/internal/config"
	"github.com/Dicklesworthstone/sysreport/internal/model"
	"github.com/Dicklesworthstone/sysreport/internal/probe"
)

type fakeProbes struct {
	host   probe.Result[string]
	ports  probe.Result[int]
	users  probe.Result[probe.Sessions]
	failed probe.Result[[]string]
	calls  []string
}

func (f *fakeProbes) Hostname(context.Context) probe.Result[string] {
	f.calls = append(f.calls, "hostname")
	return f.host
}

func (f *fakeProbes) ListeningPorts(context.Context) probe.Result[int] {
	f.calls = append(f.calls, "ports")
	return f.ports
}

func (f *fakeProbes) Sessions(context.Context, int) probe.Result[probe.Sessions] {
	f.calls = append(f.calls, "sessions")
	return f.users
}

func (f *fakeProbes) FailedLogins(context.Context, int) probe.Result[[]string] {
	f.calls = append(f.calls, "failed-logins")
	return f.failed
}

type mapOwners map[int32]string

func (m mapOwners) ResolveOwner(_ context.Context, pid int32) string {
	if name, ok := m[pid]; ok {
		return name
	}
	return probe.UnknownUser
}

type panicOwners struct{}

func (panicOwners) ResolveOwner(context.Context, int32) string { panic("owner table corrupted") }

func healthyProbes() *fakeProbes {
	return &fakeProbes{
		host:   probe.Result[string]{Value: "web-01"},
		ports:  probe.Result[int]{Value: 4},
		users:  probe.Result[probe.Sessions]{Value: probe.Sessions{Lines: []string{"alice pts/0 2026-10-19 08:00"}, Total: 3}},
		failed: probe.Result[[]string]{Value: []string{"root ssh:notty 10.0.0.9"}},
	}
}

func missing(name string) *probe.Error {
	return &probe.Error{Kind: probe.BinaryNotFound, Command: name, Reason: "not found", Err: exec.ErrNotFound}
}

func fixture() model.Snapshot {
	return model.Snapshot{
		CPU: model.CPU{Usage: 25, PerCore: []float64{50, 0}, Cores: 2},
		Memory: model.Memory{
			TotalBytes: 8 << 30, UsedBytes: 2 << 30, AvailableBytes: 6 << 30,
		},
		Disks: []model.Disk{{Name: "/dev/sda1", MountPoint: "/", TotalBytes: 100 << 30, UsedBytes: 60 << 30, AvailableBytes: 40 << 30}},
		Processes: []model.Process{
			{PID: 1, Name: "init", CPU: 0.5, RSSBytes: 8 << 20},
			{PID: 200, Name: "postgres", CPU: 35.25, RSSBytes: 2 << 30},
			{PID: 300, Name: "node", CPU: 120, RSSBytes: 512 << 20},
		},
		Interfaces: []model.NetInterface{{Name: "eth0", RxBytes: 1 << 20, TxBytes: 3 << 19}},
		Host: model.Host{
			OSName: "ubuntu", OSVersion: "22.04", KernelVersion: "6.1.0",
			BootTime: time.Date(2026, 10, 18, 7, 59, 0, 0, time.UTC),
			Uptime:   90061 * time.Second,
		},
		Load: model.Load{Load1: 1.5, Load5: 1, Load15: 0.5},
	}
}

func sectionByTitle(t *testing.T, rep Report, title string) Section {
	t.Helper()
	for _, s := range rep.Sections {
		if s.Title == title {
			return s
		}
	}
	t.Fatalf("section %q missing", title)
	return Section{}
}

func entryValue(s Section, key string) string {
	for _, e := range s.Entries {
		if e.Key == key {
			return e.Value
		}
	}
	return ""
}

func newAssembler(p Probes, o OwnerResolver) *Assembler {
	return NewAssembler(p, o, config.Default(), nil)
}

func TestBuildSectionOrder(t *testing.T) {
	p := healthyProbes()
	rep := newAssembler(p, mapOwners{}).Build(context.Background(), fixture(), time.Now())

	var titles []string
	for _, s := range rep.Sections {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{
		"CPU USAGE",
		"MEMORY USAGE",
		"DISK USAGE",
		"TOP 5 PROCESSES BY CPU USAGE",
		"TOP 5 PROCESSES BY MEMORY USAGE",
		"ADDITIONAL SYSTEM INFORMATION",
		"NETWORK INTERFACES",
		"LISTENING PORTS",
		"CURRENTLY LOGGED IN USERS",
		"RECENT FAILED LOGIN ATTEMPTS",
	}, titles)
	assert.Equal(t, []string{"hostname", "ports", "sessions", "failed-logins"}, p.calls)
	assert.Equal(t, "web-01", rep.Hostname)
}

func TestBuildAggregates(t *testing.T) {
	rep := newAssembler(healthyProbes(), mapOwners{200: "postgres", 300: "alice"}).
		Build(context.Background(), fixture(), time.Now())

	cpu := sectionByTitle(t, rep, "CPU USAGE")
	assert.Equal(t, "25.00%", entryValue(cpu, "CPU Usage"))
	assert.Equal(t, "75.00%", entryValue(cpu, "CPU Idle"))
	assert.Equal(t, "2", entryValue(cpu, "CPU Cores"))
	assert.Equal(t, "cpu0 50.00%, cpu1 0.00%", entryValue(cpu, "Per-core Usage"))

	mem := sectionByTitle(t, rep, "MEMORY USAGE")
	assert.Equal(t, "8.00 GB", entryValue(mem, "Total Memory"))
	assert.Equal(t, "2.00 GB (25.00%)", entryValue(mem, "Used Memory"))
	assert.Equal(t, "6.00 GB (75.00%)", entryValue(mem, "Available Memory"))
	assert.Equal(t, "Not configured", entryValue(mem, "Swap"))

	disk := sectionByTitle(t, rep, "DISK USAGE")
	require.NotNil(t, disk.Table)
	assert.Equal(t, []string{"/dev/sda1", "100.0G", "60.0G", "40.0G", "60.0%", "/"}, disk.Table.Rows[0])

	topCPU := sectionByTitle(t, rep, "TOP 5 PROCESSES BY CPU USAGE")
	require.Len(t, topCPU.Table.Rows, 3)
	assert.Equal(t, []string{"300", "alice", "120.00", "node"}, topCPU.Table.Rows[0])
	assert.Equal(t, []string{"1", "unknown", "0.50", "init"}, topCPU.Table.Rows[2])

	topMem := sectionByTitle(t, rep, "TOP 5 PROCESSES BY MEMORY USAGE")
	assert.Equal(t, []string{"200", "postgres", "25.00", "2048.0M", "postgres"}, topMem.Table.Rows[0])

	sys := sectionByTitle(t, rep, "ADDITIONAL SYSTEM INFORMATION")
	assert.Equal(t, "ubuntu 22.04", entryValue(sys, "OS"))
	assert.Equal(t, "1 days, 1 hours, 1 minutes", entryValue(sys, "Uptime"))
	assert.Equal(t, "1.50, 1.00, 0.50", entryValue(sys, "Load Average"))
	assert.Equal(t, "0.75", entryValue(sys, "Load per core"))
	assert.Equal(t, "2026-10-18 07:59:00", entryValue(sys, "Boot time"))

	net := sectionByTitle(t, rep, "NETWORK INTERFACES")
	assert.Equal(t, "RX: 1.0 MB, TX: 1.5 MB", entryValue(net, "eth0"))

	assert.Equal(t, "4", entryValue(sectionByTitle(t, rep, "LISTENING PORTS"), "Listening ports"))
	users := sectionByTitle(t, rep, "CURRENTLY LOGGED IN USERS")
	assert.Equal(t, "alice pts/0 2026-10-19 08:00", users.Entries[0].Value)
	assert.Equal(t, "3", entryValue(users, "Total logged in users"))
}

func TestBuildZeroTotals(t *testing.T) {
	snap := model.Snapshot{
		Processes: []model.Process{{PID: 9, Name: "x", RSSBytes: 1 << 20}},
		Disks:     []model.Disk{{Name: "tmpfs", MountPoint: "/run"}},
	}
	rep := newAssembler(healthyProbes(), nil).Build(context.Background(), snap, time.Now())

	mem := sectionByTitle(t, rep, "MEMORY USAGE")
	assert.Equal(t, "0.00 GB (0.00%)", entryValue(mem, "Used Memory"))
	disk := sectionByTitle(t, rep, "DISK USAGE")
	assert.Equal(t, "0.0%", disk.Table.Rows[0][4])
	topMem := sectionByTitle(t, rep, "TOP 5 PROCESSES BY MEMORY USAGE")
	assert.Equal(t, "0.00", topMem.Table.Rows[0][2])
	sys := sectionByTitle(t, rep, "ADDITIONAL SYSTEM INFORMATION")
	assert.Equal(t, "0.00", entryValue(sys, "Load per core"))
	assert.Equal(t, "Unknown Unknown", entryValue(sys, "OS"))
	assert.Equal(t, "Unknown", entryValue(sys, "Boot time"))
	assert.Equal(t, "Not configured", entryValue(sectionByTitle(t, rep, "NETWORK INTERFACES"), "Interfaces"))
}

func TestBuildEmptySnapshotPlaceholders(t *testing.T) {
	rep := newAssembler(healthyProbes(), nil).Build(context.Background(), model.Snapshot{}, time.Now())
	assert.Equal(t, "Not configured", entryValue(sectionByTitle(t, rep, "DISK USAGE"), "Disks"))
	topCPU := sectionByTitle(t, rep, "TOP 5 PROCESSES BY CPU USAGE")
	assert.Nil(t, topCPU.Table)
	assert.Equal(t, "No processes sampled", topCPU.Entries[0].Value)
}

func TestBuildMissingUtilities(t *testing.T) {
	p := &fakeProbes{
		host:   probe.Result[string]{Err: missing("hostname")},
		ports:  probe.Result[int]{Err: missing("netstat")},
		users:  probe.Result[probe.Sessions]{Err: missing("who")},
		failed: probe.Result[[]string]{Err: missing("lastb")},
	}
	rep := newAssembler(p, probe.UnknownOwner{}).Build(context.Background(), fixture(), time.Now())

	require.Len(t, rep.Sections, 10, "every section still renders")
	assert.Equal(t, "unknown", rep.Hostname)
	assert.Equal(t, "unavailable (netstat not found)", entryValue(sectionByTitle(t, rep, "LISTENING PORTS"), "Listening ports"))
	users := sectionByTitle(t, rep, "CURRENTLY LOGGED IN USERS")
	assert.Equal(t, "Unable to retrieve user information: unavailable (who not found)", users.Entries[0].Value)
	failed := sectionByTitle(t, rep, "RECENT FAILED LOGIN ATTEMPTS")
	assert.Equal(t, "Unable to retrieve failed login information: unavailable (lastb not found)", failed.Entries[0].Value)
	topCPU := sectionByTitle(t, rep, "TOP 5 PROCESSES BY CPU USAGE")
	for _, row := range topCPU.Table.Rows {
		assert.Equal(t, "unknown", row[1])
	}
}

func TestBuildFailedLoginsPermission(t *testing.T) {
	p := healthyProbes()
	p.failed = probe.Result[[]string]{Err: &probe.Error{Kind: probe.PermissionDenied, Command: "lastb", Reason: "permission denied"}}
	rep := newAssembler(p, nil).Build(context.Background(), fixture(), time.Now())
	failed := sectionByTitle(t, rep, "RECENT FAILED LOGIN ATTEMPTS")
	require.Len(t, failed.Entries, 1)
	assert.Equal(t, "Unable to retrieve failed login information (may require elevated privileges)", failed.Entries[0].Value)

	p.failed = probe.Result[[]string]{}
	rep = newAssembler(p, nil).Build(context.Background(), fixture(), time.Now())
	failed = sectionByTitle(t, rep, "RECENT FAILED LOGIN ATTEMPTS")
	assert.Equal(t, "No failed login attempts found", failed.Entries[0].Value)
}

func TestBuildPanickingSectionIsIsolated(t *testing.T) {
	rep := newAssembler(healthyProbes(), panicOwners{}).Build(context.Background(), fixture(), time.Now())
	require.Len(t, rep.Sections, 10)
	topCPU := sectionByTitle(t, rep, "TOP 5 PROCESSES BY CPU USAGE")
	assert.Nil(t, topCPU.Table)
	assert.True(t, strings.HasPrefix(topCPU.Entries[0].Value, "Unavailable"))
	assert.Equal(t, "4", entryValue(sectionByTitle(t, rep, "LISTENING PORTS"), "Listening ports"))
}

func TestBuildIsDeterministic(t *testing.T) {
	a := newAssembler(healthyProbes(), mapOwners{300: "alice"})
	first := a.Build(context.Background(), fixture(), time.Unix(1, 0))
	second := a.Build(context.Background(), fixture(), time.Unix(2, 0))
	assert.Equal(t, first.Sections, second.Sections)
	assert.Equal(t, first.Hostname, second.Hostname)
}

func TestBuildHonorsTopN(t *testing.T) {
	cfg := config.Default()
	cfg.TopN = 1
	rep := NewAssembler(healthyProbes(), nil, cfg, nil).Build(context.Background(), fixture(), time.Now())
	topCPU := sectionByTitle(t, rep, "TOP 1 PROCESSES BY CPU USAGE")
	require.Len(t, topCPU.Table.Rows, 1)
	assert.Equal(t, "300", topCPU.Table.Rows[0][0])
}
