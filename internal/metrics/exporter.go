package metrics

import (
	"encoding/json"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSnapshot carries the system half of an export. Fields stay zero when a
// probe fails; exporting must never error out the caller.
type HostSnapshot struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemUsedMB     uint64  `json:"mem_used_mb"`
	MemTotalMB    uint64  `json:"mem_total_mb"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
}

type Export struct {
	Timestamp time.Time    `json:"timestamp"`
	Counters  Snapshot     `json:"counters"`
	Host      HostSnapshot `json:"host"`
}

// CollectHost gathers system stats, best effort per probe.
func CollectHost() HostSnapshot {
	snap := HostSnapshot{Goroutines: runtime.NumGoroutine()}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		snap.MemUsedMB = vm.Used / 1024 / 1024
		snap.MemTotalMB = vm.Total / 1024 / 1024
	}
	if uptime, err := host.Uptime(); err == nil {
		snap.UptimeSeconds = uptime
	}
	return snap
}

// ExportJSON renders the full export for the stats surface.
func ExportJSON(r *Registry) ([]byte, error) {
	export := Export{
		Timestamp: time.Now().UTC(),
		Counters:  r.Snapshot(),
		Host:      CollectHost(),
	}
	return json.Marshal(export)
}
