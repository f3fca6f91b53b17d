package exporter

import (
	"encoding/csv"
	"fmt"
	"os"

	"fusioncli/internal/matrix"
)

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // UTF-8 BOM for Excel
}

// WriteCSV writes data to a CSV file with the given options
func WriteCSV(path string, options WriteOptions) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// StreamWriter writes CSV records one at a time and enforces a fixed width.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
	width  int
	rows   int
}

// CreateStreamWriter creates the file and writes the header
func CreateStreamWriter(path string, headers []string, bom bool) (*StreamWriter, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if bom {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}

	return &StreamWriter{file: file, writer: writer, width: len(headers)}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	if s.width > 0 && len(record) != s.width {
		return fmt.Errorf("record %d has %d fields, header has %d", s.rows+1, len(record), s.width)
	}
	s.rows++
	return s.writer.Write(record)
}

// Rows returns the number of records written
func (s *StreamWriter) Rows() int { return s.rows }

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// WriteMatrixCSV streams m to path.
func WriteMatrixCSV(path string, m *matrix.Matrix, bom bool) error {
	stream, err := CreateStreamWriter(path, m.Header(), bom)
	if err != nil {
		return err
	}
	for _, r := range m.Rows {
		if err := stream.WriteRecord(r.Strings(m.Columns)); err != nil {
			stream.Close()
			return err
		}
	}
	return stream.Close()
}
