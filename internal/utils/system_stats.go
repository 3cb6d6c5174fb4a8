package utils

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	log "github.com/sirupsen/logrus"
)

var (
	startTime = time.Now()

	lastCPUTime        time.Time
	lastCPUUsage       float64
	cpuUsageMutex      sync.Mutex
	cpuUsageSampleRate = 500 * time.Millisecond
)

// SystemStats is a snapshot of process and host statistics for the status
// endpoint.
type SystemStats struct {
	NumCPU           int     `json:"num_cpu"`
	GoRoutines       int     `json:"go_routines"`
	CPUUsage         float64 `json:"cpu_usage"`
	MemoryAlloc      uint64  `json:"memory_alloc"`
	MemoryAllocHuman string  `json:"memory_alloc_human"`
	MemorySys        uint64  `json:"memory_sys"`
	UptimeSeconds    float64 `json:"uptime_seconds"`

	Timestamp time.Time `json:"timestamp"`
}

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d Bytes", bytes)
	}
}

// GetCPUUsage measures host CPU usage via gopsutil, with a short-lived
// cache so frequent status polls do not stack up measurements.
func GetCPUUsage() float64 {
	cpuUsageMutex.Lock()
	defer cpuUsageMutex.Unlock()

	if time.Since(lastCPUTime) < cpuUsageSampleRate && lastCPUTime.Unix() > 0 {
		return lastCPUUsage
	}

	percentages, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil {
		log.Warnf("Failed to measure CPU usage: %v", err)
		return 0.0
	}

	var usage float64
	if len(percentages) > 0 {
		usage = percentages[0]
	}

	lastCPUTime = time.Now()
	lastCPUUsage = usage

	return usage
}

// GetSystemStats collects the current system statistics.
func GetSystemStats() *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &SystemStats{
		NumCPU:           runtime.NumCPU(),
		GoRoutines:       runtime.NumGoroutine(),
		CPUUsage:         GetCPUUsage(),
		MemoryAlloc:      memStats.Alloc,
		MemoryAllocHuman: FormatBytes(memStats.Alloc),
		MemorySys:        memStats.Sys,
		UptimeSeconds:    time.Since(startTime).Seconds(),
		Timestamp:        time.Now(),
	}
}
