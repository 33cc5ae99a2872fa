package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spherical/calendar-extractor/cmd/calendar-extractor/ui"
	"github.com/spherical/calendar-extractor/internal/domain"
	"github.com/spherical/calendar-extractor/internal/ocr"
)

var ocrWords bool

var ocrCmd = &cobra.Command{
	Use:   "ocr <image>",
	Short: "Print the text tesseract reads from an image",
	Long: `Run only the OCR step and print its text. Useful to check what the
language model will be given. With --words, print every recognised word with
its bounding box and confidence as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	ocrCmd.Flags().BoolVar(&ocrWords, "words", false, "print word boxes as JSON instead of plain text")
	rootCmd.AddCommand(ocrCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	ui.InitUI(noColor, verbose)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	domain.SetDefaultLogger(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tess := ocr.NewTesseract(ocrOptions(cfg, logger))
	out := cmd.OutOrStdout()

	if ocrWords {
		words, err := tess.ExtractWords(ctx, args[0])
		if err != nil {
			return fmt.Errorf("ocr: %w", err)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(words)
	}

	text, err := tess.Recognize(ctx, args[0])
	if err != nil {
		return fmt.Errorf("ocr: %w", err)
	}
	if text == "" {
		ui.Warning("No text found in %s", args[0])
		return nil
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
