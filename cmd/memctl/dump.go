package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/memkit/memkit/mem"
	"github.com/memkit/memkit/mem/phys"
)

var (
	dumpBase   uint64
	dumpAddr   uint64
	dumpLength uint64
)

func init() {
	cmd := newDumpCmd()
	cmd.Flags().Uint64Var(&dumpBase, "base", 0, "Base address of the image")
	cmd.Flags().Uint64Var(&dumpAddr, "addr", 0, "Start address (default: image base)")
	cmd.Flags().Uint64Var(&dumpLength, "length", 256, "Number of bytes to dump")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump <image>",
		Short: "Hex dump of image contents",
		Long: `The dump command prints a hex dump of an image region with an ASCII
sidebar.

Example:
  memctl dump mem.img
  memctl dump mem.img --addr 0x1000 --length 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args, cmd.Flags().Changed("addr"))
		},
	}
	return cmd
}

func runDump(args []string, addrSet bool) error {
	path := args[0]

	img, err := phys.Open(path, dumpBase, 0)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer img.Close()

	start := img.Base()
	if addrSet {
		start = dumpAddr
	}
	if !img.Contains(start) {
		return fmt.Errorf("address 0x%x is outside the image (0x%x - 0x%x)", start, img.Base(), img.End())
	}

	// Clip the dump window to the image end.
	length := dumpLength
	if avail := uint64(img.End() - start); length > avail {
		length = avail
	}

	buf := make([]byte, length)
	if err := img.ReadAt(start, buf); err != nil {
		return err
	}

	const width = 16
	for off := 0; off < len(buf); off += width {
		end := off + width
		if end > len(buf) {
			end = len(buf)
		}
		printInfo("%s\n", dumpRow(start+mem.Addr(off), buf[off:end], width))
	}
	return nil
}

// dumpRow formats one hex dump line: address, hex bytes, ASCII sidebar.
func dumpRow(addr mem.Addr, row []byte, width int) string {
	var hexCol strings.Builder
	var asciiCol strings.Builder

	for i := 0; i < width; i++ {
		if i == width/2 {
			hexCol.WriteByte(' ')
		}
		if i < len(row) {
			fmt.Fprintf(&hexCol, "%02x ", row[i])
			if row[i] >= 0x20 && row[i] <= 0x7E {
				asciiCol.WriteByte(row[i])
			} else {
				asciiCol.WriteByte('.')
			}
		} else {
			hexCol.WriteString("   ")
		}
	}

	return fmt.Sprintf("0x%08x  %s |%s|", addr, hexCol.String(), asciiCol.String())
}
