package util

import (
	"bytes"
	"errors"
	"github.com/natefinch/atomic"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
)

// CheckFilePermissionsForExecution checks whether the given filePath owner, group and permissions
// are safe to use this file for execution by ecfan.
func CheckFilePermissionsForExecution(filePath string) (bool, error) {
	var file = filePath

	file, err := filepath.EvalSymlinks(file)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(file)
	if os.IsNotExist(err) {
		return false, errors.New("file not found")
	}

	stat := info.Sys().(*syscall.Stat_t)
	if stat.Uid != 0 {
		return false, errors.New("owner is not root")
	}

	if stat.Gid != 0 {
		mode := info.Mode()
		groupWrite := mode & (os.FileMode(0o020))
		if groupWrite != 0 {
			return false, errors.New("group is not root but has write permission")
		}
	}

	otherWrite := info.Mode() & (os.FileMode(0o002))
	if otherWrite != 0 {
		return false, errors.New("others have write permission")
	}

	return true, nil
}

// ExpandHomeDir resolves a leading "~" to the home directory of the current user
func ExpandHomeDir(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	currentUser, err := user.Current()
	if err != nil {
		return path, err
	}
	return filepath.Join(currentUser.HomeDir, path[1:]), nil
}

// WriteFileAtomic replaces the content of path without readers ever seeing a partial file
func WriteFileAtomic(path string, data []byte) error {
	path, err := ExpandHomeDir(path)
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
