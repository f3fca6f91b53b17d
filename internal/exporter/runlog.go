package exporter

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// RunLogFile is the run ledger kept at the exporter root. Each successful run
// appends one row per job.
const RunLogFile = "runs.csv"

var runLogHeader = []string{"run_id", "finished_at", "job", "rows", "columns", "null_ratio", "csv"}

// RunLogEntry is one job of a finished run.
type RunLogEntry struct {
	Job       string
	Rows      int
	Columns   int
	NullRatio float64
	CSV       string
}

// AppendRunLog appends entries to the run ledger, writing the header when the
// ledger does not exist yet. It returns the ledger path.
func (e *Exporter) AppendRunLog(runID string, finished time.Time, entries []RunLogEntry) (string, error) {
	path := filepath.Join(e.root, RunLogFile)

	_, err := os.Stat(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return path, writeError(path, err)
	}

	stamp := finished.UTC().Format(time.RFC3339)
	records := make([][]string, 0, len(entries))
	for _, en := range entries {
		records = append(records, []string{
			runID,
			stamp,
			en.Job,
			strconv.Itoa(en.Rows),
			strconv.Itoa(en.Columns),
			strconv.FormatFloat(en.NullRatio, 'f', 4, 64),
			en.CSV,
		})
	}

	if err := WriteCSV(path, WriteOptions{Headers: runLogHeader, Records: records, Append: exists}); err != nil {
		return path, writeError(path, err)
	}
	return path, nil
}
