package main

import (
	"testing"
)

func TestTranslateCommand(t *testing.T) {
	tests := []struct {
		name        string
		virt        string
		maps        []string
		pageSize    uint64
		check       string
		level       string
		wantErr     bool
		wantContain []string
	}{
		{
			name:        "offset preserved",
			virt:        "0x1234",
			maps:        []string{"0x1000:0x5000:rw"},
			wantContain: []string{"virtual 0x1234 -> physical 0x5234", "page 0x1000 -> frame 0x5000"},
		},
		{
			name:    "unmapped address faults",
			virt:    "0x9000",
			maps:    []string{"0x1000:0x5000:rw"},
			wantErr: true,
		},
		{
			name:        "write allowed",
			virt:        "0x1000",
			maps:        []string{"0x1000:0x5000:rw"},
			check:       "w",
			level:       "standard",
			wantContain: []string{`access "w" as standard: allowed`},
		},
		{
			name:        "execute denied on data page",
			virt:        "0x1000",
			maps:        []string{"0x1000:0x5000:rw"},
			check:       "x",
			level:       "standard",
			wantContain: []string{`access "x" as standard: denied`, "permission denied"},
		},
		{
			name:        "restricted caller blocked",
			virt:        "0x1000",
			maps:        []string{"0x1000:0x5000:rw"},
			check:       "r",
			level:       "restricted",
			wantContain: []string{`access "r" as restricted: denied`, "security mode violation"},
		},
		{
			name:        "privileged caller allowed",
			virt:        "0x1000",
			maps:        []string{"0x1000:0x5000:rw"},
			check:       "r",
			level:       "privileged",
			wantContain: []string{`access "r" as privileged: allowed`},
		},
		{
			name:     "custom page size",
			virt:     "0x3000",
			maps:     []string{"0x2000:0x10000:rw"},
			pageSize: 8192,
			wantContain: []string{
				"virtual 0x3000 -> physical 0x11000",
				"page 0x2000 -> frame 0x10000",
			},
		},
		{
			name:    "bad mapping format",
			virt:    "0x1000",
			maps:    []string{"0x1000=0x5000"},
			wantErr: true,
		},
		{
			name:    "bad permission letter",
			virt:    "0x1000",
			maps:    []string{"0x1000:0x5000:rq"},
			wantErr: true,
		},
		{
			name:     "bad page size",
			virt:     "0x1000",
			maps:     []string{"0x1000:0x5000:rw"},
			pageSize: 3000,
			wantErr:  true,
		},
		{
			name:    "no mappings",
			virt:    "0x1000",
			maps:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			transMaps = tt.maps
			transCheck = tt.check
			transLevel = tt.level
			if transLevel == "" {
				transLevel = "standard"
			}
			transPageSize = tt.pageSize
			if transPageSize == 0 {
				transPageSize = 4096
			}

			output, err := captureOutput(t, func() error {
				return runTranslate([]string{tt.virt})
			})

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got output:\n%s", output)
				}
				return
			}
			if err != nil {
				t.Fatalf("translate failed: %v", err)
			}
			assertContains(t, output, tt.wantContain)
		})
	}
}

func TestTranslateCommand_JSON(t *testing.T) {
	resetFlags()
	jsonOut = true
	transMaps = []string{"0x1000:0x5000:rwx"}
	transCheck = "rx"
	transLevel = "standard"
	transPageSize = 4096

	output, err := captureOutput(t, func() error {
		return runTranslate([]string{"0x1010"})
	})
	if err != nil {
		t.Fatalf("translate failed: %v", err)
	}
	assertJSON(t, output)
	assertContains(t, output, []string{
		"\"physical\": 20496",
		"\"allowed\": true",
	})
}
