package main

import (
	"testing"
)

func TestDumpCommand(t *testing.T) {
	path := tempImage(t, 4096)

	// Plant recognizable bytes.
	resetFlags()
	quiet = true
	writeBase = 0
	writeString = true
	if err := runWrite([]string{path, "0x0", "HELLO"}); err != nil {
		t.Fatalf("setup write failed: %v", err)
	}

	resetFlags()
	dumpBase = 0
	dumpLength = 32

	output, err := captureOutput(t, func() error {
		return runDump([]string{path}, false)
	})
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}

	assertContains(t, output, []string{
		"0x00000000",
		"48 45 4c 4c 4f",
		"|HELLO",
	})
}

func TestDumpCommand_Window(t *testing.T) {
	path := tempImage(t, 4096)
	resetFlags()
	dumpBase = 0
	dumpAddr = 0x1000 - 8
	dumpLength = 256

	// The window is clipped to the image end: 8 bytes, one row.
	output, err := captureOutput(t, func() error {
		return runDump([]string{path}, true)
	})
	if err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	lines := 0
	for _, c := range output {
		if c == '\n' {
			lines++
		}
	}
	if lines != 1 {
		t.Errorf("expected 1 dump row, got %d\nOutput: %s", lines, output)
	}
	assertContains(t, output, []string{"0x00000ff8"})
}

func TestDumpCommand_OutsideImage(t *testing.T) {
	path := tempImage(t, 4096)
	resetFlags()
	quiet = true
	dumpBase = 0
	dumpAddr = 0x8000
	dumpLength = 16

	if err := runDump([]string{path}, true); err == nil {
		t.Error("expected error for address outside the image")
	}
}
