package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"suivistock/internal/config"
	"suivistock/internal/infrastructure"
	"suivistock/internal/services"
	"suivistock/internal/validation"
	"suivistock/pkg/contracts/domain"
)

var (
	suiviPath  string
	exportPath string
	exportDate string
	outPath    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge an export into a tracking workbook and rebuild the reports",
	Long: `Run merges the export snapshot into the tracking workbook as a new
dated column and regenerates the monthly and semestrial variation
report sheets. The input files are not modified; the updated workbook
is written as a new file.`,
	RunE: runTreatment,
}

func init() {
	runCmd.Flags().StringVarP(&suiviPath, "suivi", "s", "", "Tracking workbook to update (required)")
	runCmd.Flags().StringVarP(&exportPath, "export", "e", "", "Export snapshot workbook (required)")
	runCmd.Flags().StringVarP(&exportDate, "date", "d", "", "Export date, YYYY-MM-DD or DD/MM/YYYY (required)")
	runCmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination for the updated workbook (default: outputs directory)")

	runCmd.MarkFlagRequired("suivi")
	runCmd.MarkFlagRequired("export")
	runCmd.MarkFlagRequired("date")
}

func runTreatment(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadCLIConfig()
	if err != nil {
		return err
	}

	validator := validation.NewFileValidator(cfg, logger)
	if err := validator.ValidateWorkbookFile(suiviPath); err != nil {
		return fmt.Errorf("tracking workbook: %w", err)
	}
	if err := validator.ValidateWorkbookFile(exportPath); err != nil {
		return fmt.Errorf("export workbook: %w", err)
	}

	outAbs, outIsDir := "", false
	if outPath != "" {
		outAbs, outIsDir, err = inspectDestination(outPath)
		if err != nil {
			return err
		}
		outDir := outAbs
		if !outIsDir {
			outDir = filepath.Dir(outAbs)
		}
		if err := validator.ValidateOutputDirectory(outDir); err != nil {
			return err
		}
	}

	service, err := services.NewTreatmentServiceWithLogger(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize treatment service: %w", err)
	}

	result, err := service.Run(cmd.Context(), domain.TreatmentRequest{
		Treatment:    domain.TreatmentSuiviStock,
		TrackingPath: suiviPath,
		ExportPath:   exportPath,
		ExportDate:   exportDate,
	})
	if err != nil {
		return err
	}

	finalPath := result.OutputPath
	if outAbs != "" {
		destination := outAbs
		if outIsDir {
			destination = filepath.Join(outAbs, filepath.Base(result.OutputPath))
		}
		if err := moveFile(result.OutputPath, destination); err != nil {
			return fmt.Errorf("move output to %s: %w", destination, err)
		}
		finalPath = destination
	}

	fmt.Printf("Treatment %s completed in %s\n", result.Treatment, result.Duration.Round(time.Millisecond))
	fmt.Printf("  Column added:       %s\n", result.ColumnLabel)
	fmt.Printf("  Rows updated:       %d\n", result.RowsUpdated)
	fmt.Printf("  Rows inserted:      %d\n", result.RowsInserted)
	fmt.Printf("  Monthly records:    %d\n", result.MonthlyRecords)
	fmt.Printf("  Semestrial records: %d\n", result.SemestrialRecords)
	fmt.Printf("  Output workbook:    %s\n", finalPath)

	return nil
}

// loadCLIConfig loads the service configuration with logging quieted down
// for interactive use.
func loadCLIConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	if !verbose {
		cfg.Logging.Level = "warn"
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}

// inspectDestination resolves --out and reports whether it names an
// existing directory (which receives the workbook under its generated
// name) or a target file path.
func inspectDestination(out string) (string, bool, error) {
	abs, err := filepath.Abs(out)
	if err != nil {
		return "", false, fmt.Errorf("resolve output path: %w", err)
	}

	info, err := os.Stat(abs)
	if err == nil && info.IsDir() {
		return abs, true, nil
	}

	return abs, false, nil
}

// moveFile renames src to dst, falling back to copy-and-remove when the
// two paths live on different filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	return os.Remove(src)
}
