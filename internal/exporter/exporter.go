package exporter

import (
	"context"
	"log/slog"
	"path/filepath"

	apperrors "fusioncli/internal/errors"
	"fusioncli/internal/matrix"
)

// Formats selects the optional outputs. CSV and schema.json are always written.
type Formats struct {
	Parquet bool
	XLSX    bool
	BOM     bool
}

// Files lists what one export produced.
type Files struct {
	CSV     string
	Schema  string
	Parquet string
	XLSX    string
}

// Exporter writes matrices under a root directory, one subdirectory per job.
type Exporter struct {
	root   string
	logger *slog.Logger
}

// New creates an exporter rooted at dir.
func New(dir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{root: dir, logger: logger.With(slog.String("component", "exporter"))}
}

// PathsFor returns the output paths for a job name.
func (e *Exporter) PathsFor(job string, formats Formats) Files {
	dir := filepath.Join(e.root, job)
	files := Files{
		CSV:    filepath.Join(dir, "features.csv"),
		Schema: filepath.Join(dir, "schema.json"),
	}
	if formats.Parquet {
		files.Parquet = filepath.Join(dir, "features.parquet")
	}
	if formats.XLSX {
		files.XLSX = filepath.Join(dir, "preview.xlsx")
	}
	return files
}

// Export writes m in every requested format. A matrix whose rows do not match
// its header is a configuration error and nothing is written. Write failures
// are storage errors naming the file that could not be written.
func (e *Exporter) Export(ctx context.Context, m *matrix.Matrix, formats Formats) (Files, error) {
	files := e.PathsFor(m.Job, formats)
	if err := m.Validate(); err != nil {
		return files, err
	}

	if err := WriteMatrixCSV(files.CSV, m, formats.BOM); err != nil {
		return files, writeError(files.CSV, err)
	}
	if err := WriteSchema(files.Schema, matrix.Describe(m)); err != nil {
		return files, writeError(files.Schema, err)
	}
	if err := ctx.Err(); err != nil {
		return files, err
	}
	if files.Parquet != "" {
		if err := WriteMatrixParquet(files.Parquet, m); err != nil {
			return files, writeError(files.Parquet, err)
		}
	}
	if files.XLSX != "" {
		if err := WriteXLSXPreview(files.XLSX, m); err != nil {
			return files, writeError(files.XLSX, err)
		}
	}

	e.logger.InfoContext(ctx, "matrix exported",
		slog.String("job", m.Job),
		slog.Int("rows", len(m.Rows)),
		slog.Int("columns", len(m.Columns)),
		slog.String("csv", files.CSV))
	return files, nil
}

func writeError(path string, err error) error {
	return apperrors.NewStorageError("failed to write "+filepath.Base(path), err).
		WithContext("path", path)
}
