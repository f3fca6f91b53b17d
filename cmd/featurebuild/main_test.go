package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fusioncli/internal/config"
	"fusioncli/internal/exporter"
	"fusioncli/internal/files"
	"fusioncli/internal/services"
)

func TestSelectJobs(t *testing.T) {
	jobs := []config.JobConfig{
		{Primary: "ES"},
		{Name: "gold", Primary: "GC"},
		{Primary: "NQ"},
	}

	tests := []struct {
		name    string
		only    string
		want    []string
		wantErr string
	}{
		{name: "all", only: "", want: []string{"es", "gold", "nq"}},
		{name: "subset", only: "nq, ES", want: []string{"es", "nq"}},
		{name: "named", only: "gold", want: []string{"gold"}},
		{name: "unknown", only: "es,zz,aa", wantErr: "unknown jobs: aa, zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Jobs = append([]config.JobConfig(nil), jobs...)

			err := selectJobs(cfg, tt.only)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, err.Error())
				assert.Len(t, cfg.Jobs, 3)
				return
			}
			require.NoError(t, err)

			got := make([]string, 0, len(cfg.Jobs))
			for _, jc := range cfg.Jobs {
				job, err := jc.MatrixJob()
				require.NoError(t, err)
				got = append(got, job.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &services.RunResult{
		RunID:    "run-1",
		Duration: 1500 * time.Millisecond,
		RunLog:   "out/runs.csv",
		Jobs: []services.JobResult{
			{Job: "es", Rows: 200, Columns: 31, NullRatio: 0.0631, Files: exporter.Files{CSV: "out/es/features.csv"}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "run run-1 finished in 1.5s")
	assert.Contains(t, out, "JOB")
	assert.Regexp(t, `es\s+200\s+31\s+0\.063\s+out/es/features\.csv`, out)
	assert.Contains(t, out, "run log out/runs.csv")
}

func TestPrintInventory(t *testing.T) {
	mod := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printInventory(&buf, &files.Inventory{
		Dir:          "/data",
		Bars:         []files.BarFile{{Code: "ES", FileInfo: files.FileInfo{Name: "ES.csv", Size: 2048, ModTime: mod}}},
		Macro:        []files.MacroFile{{ID: "DGS10", FileInfo: files.FileInfo{Name: "DGS10.csv", Size: 512, ModTime: mod}}},
		Unrecognized: []string{"bars/AAPL.csv"},
	})

	out := buf.String()
	assert.Contains(t, out, "data directory /data")
	assert.Regexp(t, `bars\s+ES\.csv\s+2048\s+2024-03-12T09:00:00Z`, out)
	assert.Regexp(t, `macro\s+DGS10\.csv\s+512`, out)
	assert.Regexp(t, `calendar\s+-`, out)
	assert.Regexp(t, `ignored\s+bars/AAPL\.csv`, out)
}
