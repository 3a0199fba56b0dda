package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memkit/memkit/mem/phys"
)

var (
	infoBase uint64
)

func init() {
	cmd := newInfoCmd()
	cmd.Flags().Uint64Var(&infoBase, "base", 0, "Base address of the image")
	rootCmd.AddCommand(cmd)
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <image>",
		Short: "Show image metadata and usage",
		Long: `The info command shows metadata about a memory image: its size, base
address, and how much of it holds non-zero data.

Example:
  memctl info mem.img
  memctl info mem.img --base 0x100000 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args)
		},
	}
	return cmd
}

type ImageInfo struct {
	Path         string
	LastModified time.Time

	Base uint64
	Size uint64

	NonZeroBytes uint64
	UsedPages    int
	TotalPages   int

	FirstNonZero uint64 // address of the first non-zero byte, 0 if none
	LastNonZero  uint64 // address of the last non-zero byte, 0 if none
}

func runInfo(args []string) error {
	path := args[0]

	printVerbose("Opening image: %s\n", path)

	fileInfo, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	img, err := phys.Open(path, infoBase, 0)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	info := ImageInfo{
		Path:         path,
		LastModified: fileInfo.ModTime(),
		Base:         img.Base(),
		Size:         img.Size(),
	}

	// Scan for non-zero content, page by page.
	const pageSize = 4096
	data := img.Bytes()
	first, last := -1, -1
	for off, b := range data {
		if b == 0 {
			continue
		}
		info.NonZeroBytes++
		if first < 0 {
			first = off
		}
		last = off
	}
	info.TotalPages = (len(data) + pageSize - 1) / pageSize
	if first >= 0 {
		info.FirstNonZero = img.Base() + uint64(first)
		info.LastNonZero = img.Base() + uint64(last)
		for p := 0; p < info.TotalPages; p++ {
			start := p * pageSize
			end := start + pageSize
			if end > len(data) {
				end = len(data)
			}
			for _, b := range data[start:end] {
				if b != 0 {
					info.UsedPages++
					break
				}
			}
		}
	}

	if jsonOut {
		return printJSON(info)
	}

	printInfo("Image: %s\n", path)
	printInfo("  Base: 0x%x\n", info.Base)
	printInfo("  Size: %s (%s bytes)\n", formatBytes(int64(info.Size)), formatNumber(int64(info.Size)))
	printInfo("  Last Modified: %s\n", info.LastModified.Format("2006-01-02 15:04:05"))
	printInfo("  Non-zero: %s bytes in %d of %d pages\n",
		formatNumber(int64(info.NonZeroBytes)), info.UsedPages, info.TotalPages)
	if info.NonZeroBytes > 0 {
		printInfo("  Data span: 0x%x - 0x%x\n", info.FirstNonZero, info.LastNonZero)
	}
	return nil
}
