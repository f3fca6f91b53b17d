package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"fusioncli/internal/matrix"
	"fusioncli/internal/providers"
)

// Bar file extensions.
const (
	ExtCSV     = ".csv"
	ExtParquet = ".parquet"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string    `json:"path"`
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// BarFile is a bar series file for a supported instrument.
type BarFile struct {
	Instrument matrix.Instrument `json:"-"`
	Code       string            `json:"code"`
	FileInfo
}

// MacroFile is an observation file for a supported macro series.
type MacroFile struct {
	Series matrix.MacroSeries `json:"-"`
	ID     string             `json:"id"`
	FileInfo
}

// Inventory lists what a data directory can serve. Files whose names match
// no supported instrument or series are kept in Unrecognized.
type Inventory struct {
	Dir          string      `json:"dir"`
	Bars         []BarFile   `json:"bars"`
	Macro        []MacroFile `json:"macro"`
	Calendar     *FileInfo   `json:"calendar,omitempty"`
	Unrecognized []string    `json:"unrecognized,omitempty"`
}

// Discover scans dir. Missing bars/ or macro/ subdirectories are treated as
// empty; a missing dir is an error.
func Discover(dir string) (*Inventory, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	inv := &Inventory{Dir: dir}

	bars, err := listFiles(filepath.Join(dir, "bars"), ExtCSV, ExtParquet)
	if err != nil {
		return nil, err
	}
	for _, f := range bars {
		code := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
		in, err := matrix.ParseInstrument(code)
		if err != nil || in.Code() != code {
			inv.Unrecognized = append(inv.Unrecognized, filepath.Join("bars", f.Name))
			continue
		}
		inv.Bars = append(inv.Bars, BarFile{Instrument: in, Code: code, FileInfo: f})
	}

	macro, err := listFiles(filepath.Join(dir, "macro"), ExtCSV)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]matrix.MacroSeries, len(matrix.MacroSeriesAll))
	for _, ms := range matrix.MacroSeriesAll {
		byID[ms.ID()] = ms
	}
	for _, f := range macro {
		id := strings.TrimSuffix(f.Name, ExtCSV)
		ms, ok := byID[id]
		if !ok {
			inv.Unrecognized = append(inv.Unrecognized, filepath.Join("macro", f.Name))
			continue
		}
		inv.Macro = append(inv.Macro, MacroFile{Series: ms, ID: id, FileInfo: f})
	}

	if cal, err := stat(filepath.Join(dir, "calendar.csv")); err == nil {
		inv.Calendar = &cal
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	return inv, nil
}

// HasBars reports whether a bar file with the given extension exists for in.
func (inv *Inventory) HasBars(in matrix.Instrument, ext string) bool {
	for _, b := range inv.Bars {
		if b.Instrument == in && filepath.Ext(b.Name) == ext {
			return true
		}
	}
	return false
}

// HasMacro reports whether an observation file exists for ms.
func (inv *Inventory) HasMacro(ms matrix.MacroSeries) bool {
	for _, m := range inv.Macro {
		if m.Series == ms {
			return true
		}
	}
	return false
}

// Missing returns the relative paths req needs that the directory lacks.
// The calendar is optional and never reported.
func (inv *Inventory) Missing(req providers.Request, barExt string) []string {
	var missing []string
	for _, in := range req.Instruments {
		if !inv.HasBars(in, barExt) {
			missing = append(missing, filepath.Join("bars", in.Code()+barExt))
		}
	}
	for _, ms := range req.Macro {
		if !inv.HasMacro(ms) {
			missing = append(missing, filepath.Join("macro", ms.ID()+ExtCSV))
		}
	}
	return missing
}

// listFiles returns the regular files in dir with one of exts, sorted by
// name. A missing dir yields nothing.
func listFiles(dir string, exts ...string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !hasExt(entry.Name(), exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func hasExt(name string, exts []string) bool {
	ext := filepath.Ext(name)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func stat(path string) (FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	if info.IsDir() {
		return FileInfo{}, fmt.Errorf("%s is a directory, not a file", path)
	}
	return FileInfo{Path: path, Name: info.Name(), Size: info.Size(), ModTime: info.ModTime()}, nil
}
