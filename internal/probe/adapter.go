// Package probe wraps optional OS utilities (socket listing, sessions,
// failed logins, hostname) and process ownership lookups. Every call returns a
// value or an explicit reason; nothing here aborts a report.
package probe

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/Dicklesworthstone/sysreport/internal/config"
)

const btmpBanner = "btmp begins"

// Adapter runs the configured probe commands through a Runner.
type Adapter struct {
	runner      Runner
	cmds        config.Probes
	hostnameEnv string
	lookupEnv   func(string) (string, bool)
	log         *zap.Logger
}

func NewAdapter(runner Runner, cfg config.Config, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		runner:      runner,
		cmds:        cfg.Probes,
		hostnameEnv: cfg.HostnameEnv,
		lookupEnv:   os.LookupEnv,
		log:         log.Named("probe"),
	}
}

func (a *Adapter) run(ctx context.Context, probe string, cmd config.Command) (string, *Error) {
	out, err := a.runner.Run(ctx, cmd.Name, cmd.Args...)
	if perr := classify(cmd.Name, out, err); perr != nil {
		a.log.Debug("probe unavailable",
			zap.String("probe", probe),
			zap.String("command", cmd.String()),
			zap.Stringer("kind", perr.Kind),
			zap.Error(perr))
		return "", perr
	}
	return out.Stdout, nil
}

// ListeningPorts counts socket-listing lines carrying the LISTEN marker.
func (a *Adapter) ListeningPorts(ctx context.Context) Result[int] {
	out, err := a.run(ctx, "ports", a.cmds.Ports)
	if err != nil {
		return fail[int](err)
	}
	n := 0
	for _, line := range lines(out) {
		if strings.Contains(line, "LISTEN") {
			n++
		}
	}
	return ok(n)
}

// Sessions returns up to limit session lines verbatim plus the total count.
func (a *Adapter) Sessions(ctx context.Context, limit int) Result[Sessions] {
	out, err := a.run(ctx, "sessions", a.cmds.Sessions)
	if err != nil {
		return fail[Sessions](err)
	}
	all := lines(out)
	shown := all
	if limit >= 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	return ok(Sessions{Lines: append([]string(nil), shown...), Total: len(all)})
}

// FailedLogins returns up to limit failed-login lines with blank lines and the
// btmp banner removed. An unreadable log comes back as PermissionDenied.
func (a *Adapter) FailedLogins(ctx context.Context, limit int) Result[[]string] {
	out, err := a.run(ctx, "failed-logins", a.cmds.FailedLogins)
	if err != nil {
		if err.Kind == NonZeroExit {
			// lastb exits non-zero when it cannot open btmp.
			err = &Error{Kind: PermissionDenied, Command: err.Command, Reason: err.Reason, Err: err.Err}
		}
		return fail[[]string](err)
	}
	var kept []string
	for _, line := range lines(out) {
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, btmpBanner) {
			continue
		}
		if limit >= 0 && len(kept) == limit {
			break
		}
		kept = append(kept, line)
	}
	return ok(kept)
}

// Hostname prefers the configured environment variable and falls back to the
// hostname utility.
func (a *Adapter) Hostname(ctx context.Context) Result[string] {
	if a.hostnameEnv != "" {
		if v, found := a.lookupEnv(a.hostnameEnv); found && strings.TrimSpace(v) != "" {
			return ok(strings.TrimSpace(v))
		}
	}
	out, err := a.run(ctx, "hostname", a.cmds.Hostname)
	if err != nil {
		return fail[string](err)
	}
	name := strings.TrimSpace(out)
	if name == "" {
		return fail[string](&Error{Kind: ParseEmpty, Command: a.cmds.Hostname.Name, Reason: "no output"})
	}
	return ok(name)
}

// lines splits output on newlines, dropping the trailing empty line.
func lines(out string) []string {
	out = strings.TrimRight(out, "\r\n")
	if out == "" {
		return nil
	}
	split := strings.Split(out, "\n")
	for i, l := range split {
		split[i] = strings.TrimRight(l, "\r")
	}
	return split
}
