package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memkit/memkit/cmd/memctl/logger"
	"github.com/memkit/memkit/mem"
	"github.com/memkit/memkit/mem/frame"
	"github.com/memkit/memkit/mem/heap"
)

// workloadHeapBase is where the simulated kernel heap lives during a
// workload run. The value only shapes the reported pointers.
const workloadHeapBase mem.Addr = 0x4000_0000

var (
	workFrames   int
	workPageSize uint64
	workHeapSize uint64
	workSeed     int64
	workOps      int
)

func init() {
	cmd := newWorkloadCmd()
	cmd.Flags().IntVar(&workFrames, "frames", 256, "Number of physical frames")
	cmd.Flags().Uint64Var(&workPageSize, "page-size", 4096, "Frame size in bytes")
	cmd.Flags().Uint64Var(&workHeapSize, "heap", 1<<16, "Heap size in bytes")
	cmd.Flags().Int64Var(&workSeed, "seed", 42, "Random seed")
	cmd.Flags().IntVar(&workOps, "ops", 1000, "Number of operations to run")
	rootCmd.AddCommand(cmd)
}

func newWorkloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Run a seeded allocator workload and report fragmentation",
		Long: `The workload command drives the frame and heap allocators with a
seeded random mix of allocations and frees, verifies heap integrity,
and reports usage and fragmentation.

Example:
  memctl workload
  memctl workload --frames 64 --heap 16384 --ops 5000
  memctl workload --seed 7 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkload()
		},
	}
	return cmd
}

type WorkloadReport struct {
	Seed int64
	Ops  int

	FrameAllocs   int
	FrameFrees    int
	FrameFailures int

	HeapAllocs   int
	HeapFrees    int
	HeapFailures int

	TotalFrames int
	UsedFrames  int
	FreeFrames  int

	HeapTotal     uint64
	HeapAllocated uint64
	HeapFree      uint64
	BlockCount    int
	LargestFree   uint64
	Fragmentation float64
}

func runWorkload() error {
	if workFrames <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", workFrames)
	}
	if workPageSize == 0 {
		return fmt.Errorf("page size must be positive")
	}
	if workHeapSize < 32 {
		return fmt.Errorf("heap size must be at least 32 bytes, got %d", workHeapSize)
	}

	printVerbose("Running workload: seed=%d ops=%d\n", workSeed, workOps)

	a := frame.New(uint64(workFrames)*workPageSize, workPageSize, 0)
	h := heap.New(workloadHeapBase, workHeapSize)
	rng := rand.New(rand.NewSource(workSeed))

	report := WorkloadReport{Seed: workSeed, Ops: workOps}
	var frames []mem.Addr
	var ptrs []mem.Addr

	for i := 0; i < workOps; i++ {
		switch rng.Intn(4) {
		case 0:
			addr, err := a.AllocateFrame()
			if err != nil {
				report.FrameFailures++
				continue
			}
			frames = append(frames, addr)
			report.FrameAllocs++
		case 1:
			if len(frames) == 0 {
				continue
			}
			idx := rng.Intn(len(frames))
			if err := a.DeallocateFrame(frames[idx]); err != nil {
				return fmt.Errorf("frame free failed: %w", err)
			}
			frames[idx] = frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			report.FrameFrees++
		case 2:
			size := uint64(16 << rng.Intn(6)) // 16 to 512 bytes
			ptr, err := h.Allocate(size)
			if err != nil {
				report.HeapFailures++
				continue
			}
			ptrs = append(ptrs, ptr)
			report.HeapAllocs++
		case 3:
			if len(ptrs) == 0 {
				continue
			}
			idx := rng.Intn(len(ptrs))
			if err := h.Deallocate(ptrs[idx]); err != nil {
				return fmt.Errorf("heap free failed: %w", err)
			}
			ptrs[idx] = ptrs[len(ptrs)-1]
			ptrs = ptrs[:len(ptrs)-1]
			report.HeapFrees++
		}
	}

	if err := h.Validate(); err != nil {
		return fmt.Errorf("heap integrity check failed: %w", err)
	}

	stats := a.Stats()
	report.TotalFrames = stats.TotalFrames
	report.UsedFrames = stats.UsedFrames
	report.FreeFrames = stats.FreeFrames
	report.HeapTotal = h.TotalSize()
	report.HeapAllocated = h.TotalAllocated()
	report.HeapFree = h.TotalFree()
	report.BlockCount = h.BlockCount()
	report.LargestFree = h.LargestFreeBlock()
	report.Fragmentation = h.FragmentationRatio()

	logger.Info("workload complete",
		"seed", workSeed,
		"ops", workOps,
		"frame_failures", report.FrameFailures,
		"heap_failures", report.HeapFailures,
		"fragmentation", report.Fragmentation)

	if jsonOut {
		return printJSON(report)
	}

	printInfo("\nWorkload Report (seed %d, %s ops)\n", report.Seed, formatNumber(int64(report.Ops)))
	printInfo("%s\n\n", strings.Repeat("═", 40))

	printInfo("Frame Allocator:\n")
	printInfo("  Page Size: %s\n", formatBytes(int64(stats.PageSize)))
	printInfo("  Frames: %s total, %s used, %s free\n",
		formatNumber(int64(report.TotalFrames)),
		formatNumber(int64(report.UsedFrames)),
		formatNumber(int64(report.FreeFrames)))
	printInfo("  Memory: %s used of %s\n", formatBytes(int64(stats.UsedBytes)), formatBytes(int64(stats.TotalBytes)))
	printInfo("  Operations: %s allocs, %s frees, %s failed\n\n",
		formatNumber(int64(report.FrameAllocs)),
		formatNumber(int64(report.FrameFrees)),
		formatNumber(int64(report.FrameFailures)))

	printInfo("Heap:\n")
	printInfo("  Size: %s\n", formatBytes(int64(report.HeapTotal)))
	printInfo("  Allocated: %s in %d live allocations\n",
		formatBytes(int64(report.HeapAllocated)), h.AllocationCount())
	printInfo("  Free: %s (largest block %s)\n",
		formatBytes(int64(report.HeapFree)), formatBytes(int64(report.LargestFree)))
	printInfo("  Blocks: %d\n", report.BlockCount)
	printInfo("  Fragmentation: %.1f%%\n", report.Fragmentation*100)
	printInfo("  Operations: %s allocs, %s frees, %s failed\n",
		formatNumber(int64(report.HeapAllocs)),
		formatNumber(int64(report.HeapFrees)),
		formatNumber(int64(report.HeapFailures)))

	return nil
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	// Add commas
	var result strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}
