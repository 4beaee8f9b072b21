//go:build !linux

package probe

import "errors"

var errNoProcFS = errors.New("process owner lookup requires linux /proc")

func fallbackUID(int32) (uint32, error) { return 0, errNoProcFS }
