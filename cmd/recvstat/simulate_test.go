package main

import (
	"testing"

	"github.com/joshuapare/recvkit/recv"
)

const burstThenQuietTrace = `# two heavy bursts, then a quiet tail
65536
65536

100
100
`

func TestSimulateCommand(t *testing.T) {
	tests := []struct {
		name        string
		trace       string
		missingFile bool
		fixed       int
		verbose     bool
		wantErr     bool
		wantJSON    bool
		wantContain []string
	}{
		{
			name:    "adaptive replay",
			trace:   burstThenQuietTrace,
			verbose: true,
			wantContain: []string{
				"4 samples",
				"Allocator: adaptive",
				"Undersized reads: 2 of 4",
				"Allocation efficiency: 15.2%",
				"Final guess: 32,768",
				"short",
			},
		},
		{
			name:  "fixed replay",
			trace: burstThenQuietTrace,
			fixed: 4096,
			wantContain: []string{
				"Allocator: fixed(4096)",
				"Undersized reads: 2 of 4",
				"Final guess: 4,096",
			},
		},
		{
			name:        "json output",
			trace:       burstThenQuietTrace,
			wantJSON:    true,
			wantContain: []string{`"FinalGuess": 32768`, `"UndersizedReads": 2`},
		},
		{
			name:    "bad sample",
			trace:   "1024\nabc\n",
			wantErr: true,
		},
		{
			name:    "negative sample",
			trace:   "-5\n",
			wantErr: true,
		},
		{
			name:    "empty trace",
			trace:   "# nothing here\n\n",
			wantErr: true,
		},
		{
			name:        "missing file",
			missingFile: true,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags
			quiet = false
			verbose = tt.verbose
			jsonOut = tt.wantJSON
			simFixed = tt.fixed
			simMin = recv.DefaultMinimum
			simInitial = recv.DefaultInitial
			simMax = recv.DefaultMaximum

			path := "does-not-exist.trace"
			if !tt.missingFile {
				path = writeTempFile(t, "trace.txt", []byte(tt.trace))
			}

			output, err := captureOutput(t, func() error {
				return runSimulate([]string{path})
			})

			if (err != nil) != tt.wantErr {
				t.Errorf("runSimulate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			if tt.wantJSON {
				assertJSON(t, output)
			}

			assertContains(t, output, tt.wantContain)
		})
	}
}
