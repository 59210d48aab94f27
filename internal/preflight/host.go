package preflight

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostReport summarizes the machine a run is about to start on. Rendering is
// CPU bound and frame buffers are memory hungry, so the figures go into the
// run log to make slow batches explainable after the fact.
type HostReport struct {
	LogicalCPUs     int
	CPUModel        string
	TotalMemoryMB   uint64
	FreeMemoryMB    uint64
	MemoryUsedRatio float64
}

// DescribeHost collects the host snapshot. Collection failures degrade to
// partial reports rather than failing the run.
func DescribeHost() HostReport {
	report := HostReport{LogicalCPUs: runtime.NumCPU()}

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		report.CPUModel = infos[0].ModelName
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		report.TotalMemoryMB = vm.Total / (1 << 20)
		report.FreeMemoryMB = vm.Available / (1 << 20)
		report.MemoryUsedRatio = vm.UsedPercent / 100
	}
	return report
}

// String renders the report for log output.
func (r HostReport) String() string {
	model := r.CPUModel
	if model == "" {
		model = "unknown cpu"
	}
	return fmt.Sprintf("%d cpus (%s), %d MB memory (%d MB free)", r.LogicalCPUs, model, r.TotalMemoryMB, r.FreeMemoryMB)
}
