// Package report turns a snapshot and probe results into ordered, independently
// built sections. It does no I/O of its own beyond the probes it is given.
package report

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/sysreport/internal/config"
	"github.com/Dicklesworthstone/sysreport/internal/model"
	"github.com/Dicklesworthstone/sysreport/internal/probe"
)

// Probes is the external-utility surface the assembler needs.
type Probes interface {
	Hostname(ctx context.Context) probe.Result[string]
	ListeningPorts(ctx context.Context) probe.Result[int]
	Sessions(ctx context.Context, limit int) probe.Result[probe.Sessions]
	FailedLogins(ctx context.Context, limit int) probe.Result[[]string]
}

// OwnerResolver maps a pid to a user name, or probe.UnknownUser.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, pid int32) string
}

// Entry is one line of a section: "Key: Value", or Value alone when Key is
// empty. Nested lines are indented under the section.
type Entry struct {
	Key    string `yaml:"key,omitempty"`
	Value  string `yaml:"value"`
	Nested bool   `yaml:"-"`
}

// Column is a fixed-width table column. Width 0 leaves it unpadded.
type Column struct {
	Title string `yaml:"title"`
	Width int    `yaml:"-"`
}

type Table struct {
	Columns []Column   `yaml:"columns"`
	Rows    [][]string `yaml:"rows"`
}

// Section is one independently built unit of the report.
type Section struct {
	Title   string  `yaml:"title"`
	Table   *Table  `yaml:"table,omitempty"`
	Entries []Entry `yaml:"entries,omitempty"`
}

// Report is everything the presentation layer prints.
type Report struct {
	GeneratedAt time.Time `yaml:"generated_at"`
	Hostname    string    `yaml:"hostname"`
	Sections    []Section `yaml:"sections"`
}

// Assembler builds reports in a fixed section order.
type Assembler struct {
	probes Probes
	owners OwnerResolver

	topN             int
	sessionLimit     int
	failedLoginLimit int

	log *zap.Logger
}

func NewAssembler(probes Probes, owners OwnerResolver, cfg config.Config, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	if owners == nil {
		owners = probe.UnknownOwner{}
	}
	return &Assembler{
		probes:           probes,
		owners:           owners,
		topN:             cfg.TopN,
		sessionLimit:     cfg.SessionLimit,
		failedLoginLimit: cfg.FailedLoginLimit,
		log:              log.Named("report"),
	}
}

// Build assembles every section from one snapshot. Both process tables are
// ranked from snap.Processes so their figures agree.
func (a *Assembler) Build(ctx context.Context, snap model.Snapshot, now time.Time) Report {
	rep := Report{GeneratedAt: now, Hostname: probe.UnknownUser}
	if host := a.probes.Hostname(ctx); host.OK() {
		rep.Hostname = host.Value
	}

	builders := []struct {
		title string
		build func(*Section)
	}{
		{"CPU USAGE", func(s *Section) { a.cpuSection(s, snap) }},
		{"MEMORY USAGE", func(s *Section) { a.memorySection(s, snap) }},
		{"DISK USAGE", func(s *Section) { a.diskSection(s, snap) }},
		{topTitle(a.topN, "CPU"), func(s *Section) { a.topCPUSection(ctx, s, snap) }},
		{topTitle(a.topN, "MEMORY"), func(s *Section) { a.topMemorySection(ctx, s, snap) }},
		{"ADDITIONAL SYSTEM INFORMATION", func(s *Section) { a.systemSection(s, snap) }},
		{"NETWORK INTERFACES", func(s *Section) { a.networkSection(s, snap) }},
		{"LISTENING PORTS", func(s *Section) { a.portsSection(ctx, s) }},
		{"CURRENTLY LOGGED IN USERS", func(s *Section) { a.usersSection(ctx, s) }},
		{"RECENT FAILED LOGIN ATTEMPTS", func(s *Section) { a.failedLoginsSection(ctx, s) }},
	}
	for _, b := range builders {
		rep.Sections = append(rep.Sections, a.section(b.title, b.build))
	}
	return rep
}

// section runs one builder; a panic degrades only that section.
func (a *Assembler) section(title string, build func(*Section)) (s Section) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn("section failed", zap.String("section", title), zap.Any("panic", r))
			s = Section{Title: title, Entries: []Entry{{Value: "Unavailable (internal error)", Nested: true}}}
		}
	}()
	s = Section{Title: title}
	build(&s)
	return s
}
