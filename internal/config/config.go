package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Command is one external utility invocation.
type Command struct {
	Name string
	Args []string
}

// String renders the command line for placeholders and logs.
func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Probes lists the utilities behind each external probe.
type Probes struct {
	Ports        Command
	Sessions     Command
	FailedLogins Command
	Hostname     Command
}

// Config carries runtime options for sysreport.
type Config struct {
	CPUInterval      time.Duration
	TopN             int
	SessionLimit     int
	FailedLoginLimit int
	ProbeTimeout     time.Duration
	Output           string
	Color            bool
	LogLevel         string
	HostnameEnv      string
	Probes           Probes
}

const (
	OutputText = "text"
	OutputYAML = "yaml"
)

func Default() Config {
	return Config{
		CPUInterval:      200 * time.Millisecond,
		TopN:             5,
		SessionLimit:     10,
		FailedLoginLimit: 5,
		ProbeTimeout:     0,
		Output:           OutputText,
		Color:            true,
		LogLevel:         "warn",
		HostnameEnv:      "HOSTNAME",
		Probes: Probes{
			Ports:        Command{Name: "netstat", Args: []string{"-tuln"}},
			Sessions:     Command{Name: "who"},
			FailedLogins: Command{Name: "lastb", Args: []string{"-n", "5"}},
			Hostname:     Command{Name: "hostname"},
		},
	}
}

// FromEnv applies SYSREPORT_* overrides on top of Default. Unparseable values
// keep the default. A nil lookup reads the process environment.
func FromEnv(lookup func(string) (string, bool)) Config {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cfg := Default()
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	if v := get("SYSREPORT_CPU_INTERVAL"); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.CPUInterval = d
		}
	}
	if v := get("SYSREPORT_PROBE_TIMEOUT"); v != "" {
		if d, ok := parseDuration(v); ok {
			cfg.ProbeTimeout = d
		}
	}
	setPositive(&cfg.TopN, get("SYSREPORT_TOP"))
	setPositive(&cfg.SessionLimit, get("SYSREPORT_SESSION_LIMIT"))
	setPositive(&cfg.FailedLoginLimit, get("SYSREPORT_FAILED_LOGIN_LIMIT"))

	switch v := strings.ToLower(get("SYSREPORT_OUTPUT")); v {
	case OutputText, OutputYAML:
		cfg.Output = v
	}
	if get("SYSREPORT_COLOR") == "0" {
		cfg.Color = false
	}
	if v := get("SYSREPORT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	setCommand(&cfg.Probes.Ports, get("SYSREPORT_PORTS_CMD"))
	setCommand(&cfg.Probes.Sessions, get("SYSREPORT_SESSIONS_CMD"))
	setCommand(&cfg.Probes.FailedLogins, get("SYSREPORT_FAILED_LOGINS_CMD"))
	setCommand(&cfg.Probes.Hostname, get("SYSREPORT_HOSTNAME_CMD"))
	return cfg
}

// parseDuration accepts Go durations and bare seconds ("0.5").
func parseDuration(v string) (time.Duration, bool) {
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d, true
	}
	if d, err := time.ParseDuration(v + "s"); err == nil && d >= 0 {
		return d, true
	}
	return 0, false
}

func setPositive(dst *int, v string) {
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		*dst = n
	}
}

func setCommand(dst *Command, v string) {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return
	}
	*dst = Command{Name: fields[0], Args: fields[1:]}
}
