package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sheetscan/sheetscan/cmd/sheetscan/ui"
	"github.com/sheetscan/sheetscan/internal/dispatch"
	"github.com/sheetscan/sheetscan/internal/domain"
	"github.com/sheetscan/sheetscan/internal/intake"
	"github.com/sheetscan/sheetscan/internal/raster"
	"github.com/sheetscan/sheetscan/internal/recognize"
	"github.com/sheetscan/sheetscan/internal/records"
	"github.com/sheetscan/sheetscan/internal/scan"
)

var (
	processVariant string
	processWorkers int
	processOut     string
	infoDir        string
	vibeDir        string
	statsDir       string
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Run a batch of scans through recognition",
	Long: `Process scanned answer-sheet images and PDFs. The variant of each page is
auto-detected unless --variant forces one layout, or the three --*-dir flags
supply paired per-variant buckets.`,
	SilenceUsage: true,
	RunE:         runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processVariant, "variant", "auto", "sheet variant: auto, info, vibe or stats")
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "concurrency ceiling (3-5)")
	processCmd.Flags().StringVarP(&processOut, "out", "o", "records", "output CSV path prefix")
	processCmd.Flags().StringVar(&infoDir, "info-dir", "", "paired mode: directory of info sheets")
	processCmd.Flags().StringVar(&vibeDir, "vibe-dir", "", "paired mode: directory of vibe sheets")
	processCmd.Flags().StringVar(&statsDir, "stats-dir", "", "paired mode: directory of stats sheets")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if processWorkers != 0 {
		cfg.Dispatch.Workers = processWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	gateway, err := recognize.NewGateway(ctx, cfg.Recognition.APIKey, cfg.Recognition.Model, cfg.Recognition.CallTimeout, logger)
	if err != nil {
		return err
	}
	defer gateway.Close()

	store := records.NewStore()
	assembler := records.NewAssembler(store)

	// The spinner covers preparation (PDF rasterization); the bar takes over
	// once dispatch starts reporting progress.
	spin := ui.NewSpinner("Preparing sheets")
	var bar *ui.ProgressBar
	dispatcher := dispatch.NewDispatcher(gateway, assembler, logger, dispatch.Options{
		Workers: cfg.Dispatch.Workers,
		OnProgress: func(completed, total int) {
			if total == 0 {
				return
			}
			if bar == nil {
				spin.Stop()
				bar = ui.NewProgressBar(int64(total), "Recognizing")
			}
			bar.Set(int64(completed))
		},
	})

	builder := intake.NewBuilder(raster.NewRasterizer(), logger)
	service := scan.NewService(builder, dispatcher, logger)

	result, runErr := service.Process(ctx, *req)
	spin.Stop()
	if bar != nil {
		bar.Finish()
	}
	if result == nil {
		ui.Fail("Batch preparation failed: %v", runErr)
		return runErr
	}

	report := result.Report
	switch report.Disposition {
	case domain.BatchClean:
		ui.Success("Processed %d sheets in %s", report.Total, result.Elapsed.Round(time.Second))
	case domain.BatchDegraded:
		ui.Warn("Processed %d sheets, %d failed (see log) in %s", report.Total, report.Failed, result.Elapsed.Round(time.Second))
	case domain.BatchFailed:
		ui.Fail("All %d sheets failed: check the recognition API quota", report.Total)
		return runErr
	}

	return writeExports(store)
}

func buildRequest(args []string) (*scan.BatchRequest, error) {
	paired := infoDir != "" || vibeDir != "" || statsDir != ""
	if paired {
		if infoDir == "" || vibeDir == "" || statsDir == "" {
			return nil, fmt.Errorf("paired mode needs all of --info-dir, --vibe-dir and --stats-dir")
		}
		if len(args) > 0 {
			return nil, fmt.Errorf("paired mode does not accept positional files")
		}
		req := &scan.BatchRequest{Mode: domain.ModePaired}
		for i, dir := range []string{infoDir, vibeDir, statsDir} {
			files, err := readInputDir(dir)
			if err != nil {
				return nil, err
			}
			req.Buckets[i] = files
		}
		return req, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("no input files given")
	}
	files, err := readInputFiles(args)
	if err != nil {
		return nil, err
	}

	if processVariant == string(domain.ModeAuto) {
		return &scan.BatchRequest{Mode: domain.ModeAuto, Files: files}, nil
	}
	variant, err := domain.ParseVariant(processVariant)
	if err != nil {
		return nil, err
	}
	return &scan.BatchRequest{Mode: domain.ModeForced, Variant: variant, Files: files}, nil
}

func readInputFiles(paths []string) ([]intake.InputFile, error) {
	files := make([]intake.InputFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read files: %w", err)
		}
		files = append(files, intake.InputFile{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}

// readInputDir reads a paired bucket directory. os.ReadDir sorts entries
// lexicographically, which defines the bucket's positional order.
func readInputDir(dir string) ([]intake.InputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read files: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return readInputFiles(paths)
}

func writeExports(store *records.Store) error {
	for _, variant := range domain.Variants {
		matched := store.FilterByVariant(variant)
		if len(matched) == 0 {
			continue
		}
		csv, err := records.ExportCSV(matched, variant)
		if err != nil {
			return err
		}
		path := fmt.Sprintf("%s-%s.csv", processOut, variant)
		if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		ui.Success("Wrote %d %s records to %s", len(matched), variant, path)
	}
	return nil
}
