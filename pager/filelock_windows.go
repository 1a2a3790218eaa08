//go:build windows

package pager

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

func lockFileNonBlocking(file *os.File) error {
	flags := windows.LOCKFILE_FAIL_IMMEDIATELY | windows.LOCKFILE_EXCLUSIVE_LOCK

	err := windows.LockFileEx(windows.Handle(file.Fd()), uint32(flags), 0, 1, 0, &windows.Overlapped{})
	if err != nil {
		return errors.New("file is already locked")
	}
	return nil
}
