// Package conditions checks system resources before a database dump or restore runs
package conditions

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Config defines resource limits, nil fields are not checked
type Config struct {
	DiskFreeAbove *int    // minimal free space on DiskFreePath, percent
	DiskFreeBytes *uint64 // minimal free space on DiskFreePath, bytes
	DiskFreePath  string  // backup directory, "/" if empty
	MemoryBelow   *int    // maximal memory usage, percent
	LoadAvgBelow  *float64
}

// Check verifies if all conditions are met.
// Returns true if conditions are satisfied, false with reason otherwise
func Check(cfg Config) (bool, string) {
	if cfg.DiskFreeAbove != nil || cfg.DiskFreeBytes != nil {
		path := cfg.DiskFreePath
		if path == "" {
			path = "/"
		}
		if ok, reason := checkDiskFree(cfg.DiskFreeAbove, cfg.DiskFreeBytes, path); !ok {
			return false, reason
		}
	}

	if cfg.MemoryBelow != nil {
		if ok, reason := checkMemory(*cfg.MemoryBelow); !ok {
			return false, reason
		}
	}

	if cfg.LoadAvgBelow != nil {
		if ok, reason := checkLoadAvg(*cfg.LoadAvgBelow); !ok {
			return false, reason
		}
	}

	return true, ""
}

// checkDiskFree checks if free space on the path is above both thresholds
func checkDiskFree(minFreePercent *int, minFreeBytes *uint64, path string) (bool, string) {
	usage, err := disk.Usage(path)
	if err != nil {
		return false, fmt.Sprintf("failed to get disk usage for %s: %v", path, err)
	}
	if minFreePercent != nil {
		freePercent := 100 - int(usage.UsedPercent)
		if freePercent < *minFreePercent {
			return false, fmt.Sprintf("disk free at %d%%, need %d%% on %s", freePercent, *minFreePercent, path)
		}
	}
	if minFreeBytes != nil && usage.Free < *minFreeBytes {
		return false, fmt.Sprintf("disk free %d bytes, need %d bytes on %s", usage.Free, *minFreeBytes, path)
	}
	return true, ""
}

// checkMemory checks if memory usage is below threshold
func checkMemory(threshold int) (bool, string) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return false, fmt.Sprintf("failed to get memory: %v", err)
	}
	current := int(v.UsedPercent)
	if current >= threshold {
		return false, fmt.Sprintf("memory at %d%%, threshold %d%%", current, threshold)
	}
	return true, ""
}

// checkLoadAvg checks if load average is below threshold
func checkLoadAvg(threshold float64) (bool, string) {
	loads, err := load.Avg()
	if err != nil {
		return false, fmt.Sprintf("failed to get load average: %v", err)
	}
	if loads.Load1 >= threshold {
		return false, fmt.Sprintf("load at %.2f, threshold %.2f", loads.Load1, threshold)
	}
	return true, ""
}
