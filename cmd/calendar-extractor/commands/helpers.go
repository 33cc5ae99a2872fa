package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical/calendar-extractor/internal/config"
	"github.com/spherical/calendar-extractor/internal/domain"
	"github.com/spherical/calendar-extractor/internal/ocr"
	"github.com/spherical/calendar-extractor/internal/output"
)

const batchOutputName = "calendar_events"

// loadConfig loads the config file and environment, then applies the flags
// the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.LLM.Model = modelName
	}
	if flags.Changed("provider") {
		cfg.LLM.Provider = strings.ToLower(provider)
	}
	if flags.Changed("format") {
		cfg.Output.Format = strings.ToLower(format)
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.File = metricsFile
	}
	if flags.Changed("repair-json") {
		cfg.Interpret.RepairJSON = repairJSON
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Without --verbose, info messages are
// left to the progress display.
func newLogger(cfg *config.Config) *domain.Logger {
	logCfg := cfg.LoggerConfig()
	if !verbose && logCfg.Level == domain.LogLevelInfo {
		logCfg.Level = domain.LogLevelWarn
	}
	return domain.NewLoggerWithConfig(logCfg)
}

func ocrOptions(cfg *config.Config, logger *domain.Logger) ocr.Options {
	return ocr.Options{
		Command:  cfg.OCR.Command,
		Language: cfg.OCR.Language,
		PSM:      cfg.OCR.PSM,
		Timeout:  cfg.OCR.Timeout,
		PDFDPI:   cfg.OCR.PDFDPI,
		Logger:   logger,
	}
}

// collectInputs resolves the positional paths and the supported files of dir
// (sorted by name) into a de-duplicated list, first occurrence wins. Paths
// that do not exist or are directories are returned in skipped.
func collectInputs(args []string, dir string) (inputs, skipped []string, err error) {
	seen := make(map[string]bool)
	add := func(path string) {
		key := filepath.Clean(path)
		if seen[key] {
			return
		}
		seen[key] = true
		inputs = append(inputs, path)
	}

	for _, arg := range args {
		info, statErr := os.Stat(arg)
		if statErr != nil || info.IsDir() {
			skipped = append(skipped, arg)
			continue
		}
		add(arg)
	}

	if dir != "" {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			return inputs, skipped, domain.IOError(fmt.Sprintf("read directory %s", dir), readErr)
		}
		for _, entry := range entries {
			if entry.IsDir() || !ocr.IsSupported(entry.Name()) {
				continue
			}
			add(filepath.Join(dir, entry.Name()))
		}
	}

	return inputs, skipped, nil
}

// isBatch reports whether the run writes a mapping rather than a single list.
func isBatch(inputs []string, dir string) bool {
	return dir != "" || len(inputs) != 1
}

// defaultOutputPath derives the output file name when -o is not given:
// <image>_events for a single image, <dir>_events for a directory scan and
// calendar_events otherwise, with the extension of the chosen format.
func defaultOutputPath(inputs []string, dir, format string) string {
	ext := output.Extension(format)

	switch {
	case dir != "":
		base := filepath.Base(filepath.Clean(dir))
		if base == "." || base == string(filepath.Separator) {
			base = batchOutputName
		} else {
			base += "_events"
		}
		return base + ext
	case len(inputs) == 1:
		name := filepath.Base(inputs[0])
		name = strings.TrimSuffix(name, filepath.Ext(name))
		return filepath.Join(filepath.Dir(inputs[0]), name+"_events"+ext)
	default:
		return batchOutputName + ext
	}
}
