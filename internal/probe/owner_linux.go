//go:build linux

package probe

import (
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

// statProc allows tests to stub the /proc stat call.
var statProc = unix.Stat

// fallbackUID takes the owner of /proc/<pid>, which matches the process uid.
func fallbackUID(pid int32) (uint32, error) {
	var st unix.Stat_t
	if err := statProc(filepath.Join("/proc", strconv.Itoa(int(pid))), &st); err != nil {
		return 0, err
	}
	return st.Uid, nil
}
