package model

import "time"

// CPU aggregates busy fractions computed from two timed refreshes.
type CPU struct {
	Usage   float64   // percent 0-100, mean of PerCore
	PerCore []float64 // per-core busy percent
	Cores   int
}

// Memory captures RAM and swap in bytes.
type Memory struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
	SwapTotal      uint64
	SwapUsed       uint64
}

// Disk is one mounted filesystem.
type Disk struct {
	Name           string
	MountPoint     string
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64
}

// Process is a process-table entry at sample time. PIDs are not stable across runs.
type Process struct {
	PID      int32
	Name     string
	CPU      float64 // percent of one core; may exceed 100
	RSSBytes uint64
}

// NetInterface carries cumulative byte counters since boot.
type NetInterface struct {
	Name    string
	RxBytes uint64
	TxBytes uint64
}

// Host describes the operating system.
type Host struct {
	OSName        string
	OSVersion     string
	KernelVersion string
	BootTime      time.Time
	Uptime        time.Duration
}

// Load holds the 1/5/15-minute load averages.
type Load struct {
	Load1  float64
	Load5  float64
	Load15 float64
}

// Snapshot is the full view of machine state at one instant. Treat it as
// read-only; Clone before handing it somewhere that may modify slices.
type Snapshot struct {
	TakenAt    time.Time
	CPU        CPU
	Memory     Memory
	Disks      []Disk
	Processes  []Process
	Interfaces []NetInterface
	Host       Host
	Load       Load
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.CPU.PerCore = append([]float64(nil), s.CPU.PerCore...)
	out.Disks = append([]Disk(nil), s.Disks...)
	out.Processes = append([]Process(nil), s.Processes...)
	out.Interfaces = append([]NetInterface(nil), s.Interfaces...)
	return out
}
