// Command featurebuild builds the configured feature matrices once and
// writes them under the output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"fusioncli/internal/app"
	"fusioncli/internal/config"
	"fusioncli/internal/files"
	"fusioncli/internal/infrastructure"
	"fusioncli/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults to $FUSION_CONFIG, ./config.yaml, ./configs/config.yaml)")
	outDir := flag.String("out", "", "output directory (overrides output.dir)")
	only := flag.String("jobs", "", "comma-separated job names to build (default: all)")
	xlsx := flag.Bool("xlsx", false, "also write an XLSX preview per job")
	list := flag.Bool("list", false, "print the data directory inventory and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *list {
		inv, err := files.Discover(cfg.Sources.Dir)
		if err != nil {
			slog.Error("Failed to read data directory", slog.String("error", err.Error()))
			os.Exit(1)
		}
		printInventory(os.Stdout, inv)
		return
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *xlsx {
		cfg.Output.XLSX = true
	}
	if err := selectJobs(cfg, *only); err != nil {
		slog.Error("Invalid job selection", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	res, err := app.Build(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Build failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	printSummary(os.Stdout, res)
}

// selectJobs keeps only the named jobs. Names match the resolved job name,
// which defaults to the lowercased primary instrument.
func selectJobs(cfg *config.Config, only string) error {
	if strings.TrimSpace(only) == "" {
		return nil
	}
	want := map[string]bool{}
	for _, name := range strings.Split(only, ",") {
		if name = strings.TrimSpace(name); name != "" {
			want[strings.ToLower(name)] = true
		}
	}

	kept := cfg.Jobs[:0:0]
	for _, jc := range cfg.Jobs {
		job, err := jc.MatrixJob()
		if err != nil {
			return err
		}
		if want[job.Name] {
			kept = append(kept, jc)
			delete(want, job.Name)
		}
	}
	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for name := range want {
			missing = append(missing, name)
		}
		sort.Strings(missing)
		return fmt.Errorf("unknown jobs: %s", strings.Join(missing, ", "))
	}
	cfg.Jobs = kept
	return nil
}

func printSummary(w io.Writer, res *services.RunResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "run %s finished in %s\n", res.RunID, res.Duration.Round(time.Millisecond))
	fmt.Fprintln(tw, "JOB\tROWS\tCOLUMNS\tNULL RATIO\tCSV")
	for _, j := range res.Jobs {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.3f\t%s\n", j.Job, j.Rows, j.Columns, j.NullRatio, j.Files.CSV)
	}
	if res.RunLog != "" {
		fmt.Fprintf(tw, "run log %s\n", res.RunLog)
	}
	tw.Flush()
}

func printInventory(w io.Writer, inv *files.Inventory) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "data directory %s\n", inv.Dir)
	fmt.Fprintln(tw, "KIND\tNAME\tSIZE\tMODIFIED")
	for _, b := range inv.Bars {
		fmt.Fprintf(tw, "bars\t%s\t%d\t%s\n", b.Name, b.Size, b.ModTime.Format(time.RFC3339))
	}
	for _, m := range inv.Macro {
		fmt.Fprintf(tw, "macro\t%s\t%d\t%s\n", m.Name, m.Size, m.ModTime.Format(time.RFC3339))
	}
	if inv.Calendar != nil {
		fmt.Fprintf(tw, "calendar\t%s\t%d\t%s\n", inv.Calendar.Name, inv.Calendar.Size, inv.Calendar.ModTime.Format(time.RFC3339))
	} else {
		fmt.Fprintln(tw, "calendar\t-\t-\t-")
	}
	for _, name := range inv.Unrecognized {
		fmt.Fprintf(tw, "ignored\t%s\t\t\n", name)
	}
	tw.Flush()
}
