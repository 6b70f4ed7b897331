package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// lowSpaceBytes is the free-space floor below which the disk check warns.
const lowSpaceBytes = 1 << 30

// CheckSourceReadable verifies the scan root exists and can be read.
func CheckSourceReadable(path string) Result {
	const name = "Source readable"
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	mode := uint32(unix.R_OK)
	if info.IsDir() {
		mode = unix.R_OK | unix.X_OK
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Fatal: true, Detail: fmt.Sprintf("%s (read ok)", path)}
}

// CheckOutputWritable verifies the output root, or its nearest existing
// ancestor when the directory is yet to be created, is writable.
func CheckOutputWritable(path string) Result {
	const name = "Output writable"
	target := nearestExisting(path)
	info, err := os.Stat(target)
	if err != nil {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: stat %s: %v)", path, target, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, target)}
	}
	if err := unix.Access(target, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Fatal: true, Detail: fmt.Sprintf("%s (error: insufficient permissions on %s: %v)", path, target, err)}
	}
	return Result{Name: name, Passed: true, Fatal: true, Detail: fmt.Sprintf("%s (write ok)", path)}
}

// CheckDiskSpace reports free space at the output root. Extraction sizes
// are not known up front, so low space warns instead of refusing.
func CheckDiskSpace(path string) Result {
	const name = "Disk space"
	var stat unix.Statfs_t
	if err := unix.Statfs(nearestExisting(path), &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(free))
	if free < lowSpaceBytes {
		return Result{Name: name, Detail: detail + " (low)"}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// nearestExisting walks up from path to the closest directory that exists.
func nearestExisting(path string) string {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current
		}
		parent := filepath.Dir(current)
		if parent == current {
			return current
		}
		current = parent
	}
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
