package probe

import (
	"context"
	"os/user"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// UnknownUser is reported whenever an owner cannot be resolved.
const UnknownUser = "unknown"

// UnknownOwner is the resolver for platforms without ownership metadata.
type UnknownOwner struct{}

func (UnknownOwner) ResolveOwner(context.Context, int32) string { return UnknownUser }

// Lookups used by OwnerResolver; tests swap these out.
var (
	processUIDs = func(ctx context.Context, pid int32) ([]int32, error) {
		p, err := process.NewProcessWithContext(ctx, pid)
		if err != nil {
			return nil, err
		}
		return p.UidsWithContext(ctx)
	}
	lookupUser = user.LookupId
)

// OwnerResolver maps pid -> real uid -> user name. It caches per run and
// never fails: every miss becomes UnknownUser.
type OwnerResolver struct {
	log   *zap.Logger
	names map[uint32]string
}

func NewOwnerResolver(log *zap.Logger) *OwnerResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &OwnerResolver{log: log.Named("owner"), names: make(map[uint32]string)}
}

func (r *OwnerResolver) ResolveOwner(ctx context.Context, pid int32) string {
	uid, err := ownerUID(ctx, pid)
	if err != nil {
		r.log.Debug("owner uid unreadable", zap.Int32("pid", pid), zap.Error(err))
		return UnknownUser
	}
	if name, ok := r.names[uid]; ok {
		return name
	}
	name := UnknownUser
	if u, err := lookupUser(strconv.FormatUint(uint64(uid), 10)); err == nil && u.Username != "" {
		name = u.Username
	} else {
		r.log.Debug("uid not in identity directory", zap.Uint32("uid", uid), zap.Error(err))
	}
	r.names[uid] = name
	return name
}

// ownerUID reads the real uid from the process table, then falls back to the
// platform-specific lookup.
func ownerUID(ctx context.Context, pid int32) (uint32, error) {
	uids, err := processUIDs(ctx, pid)
	if err == nil && len(uids) > 0 && uids[0] >= 0 {
		return uint32(uids[0]), nil
	}
	return fallbackUID(pid)
}
