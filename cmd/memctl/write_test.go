package main

import (
	"os"
	"testing"
)

func TestWriteCommand_Hex(t *testing.T) {
	path := tempImage(t, 8192)
	resetFlags()
	quiet = true
	writeBase = 0
	writeString = false

	if err := runWrite([]string{path, "0x100", "deadbeef"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read image: %v", err)
	}
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	for i, b := range want {
		if data[0x100+i] != b {
			t.Errorf("byte at 0x%x = 0x%02x, want 0x%02x", 0x100+i, data[0x100+i], b)
		}
	}
}

func TestWriteCommand_String(t *testing.T) {
	path := tempImage(t, 8192)
	resetFlags()
	quiet = true
	writeBase = 0
	writeString = true

	if err := runWrite([]string{path, "0x200", "boot device"}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read image: %v", err)
	}
	if got := string(data[0x200 : 0x200+11]); got != "boot device" {
		t.Errorf("string at 0x200 = %q, want %q", got, "boot device")
	}
	if data[0x200+11] != 0 {
		t.Errorf("missing NUL terminator after string")
	}
}

func TestWriteCommand_Errors(t *testing.T) {
	path := tempImage(t, 4096)
	resetFlags()
	quiet = true
	writeBase = 0
	writeString = false

	if err := runWrite([]string{path, "0x10", "zz"}); err == nil {
		t.Error("expected error for bad hex data")
	}
	if err := runWrite([]string{path, "not-an-addr", "00"}); err == nil {
		t.Error("expected error for bad address")
	}
	if err := runWrite([]string{path, "0x10000", "00"}); err == nil {
		t.Error("expected error for out-of-range address")
	}
}
