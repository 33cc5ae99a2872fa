package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool

	inputDir    string
	outputPath  string
	modelName   string
	provider    string
	format      string
	metricsFile string
	repairJSON  bool
)

var rootCmd = &cobra.Command{
	Use:   "calendar-extractor [flags] [image ...]",
	Short: "Extract calendar events from images",
	Long: `calendar-extractor reads calendar screenshots, photos or PDF pages with
tesseract, asks a language model to list the events it sees and writes them
as JSON or YAML.

One image produces a list of events. Several images, or --dir, produce a
mapping from image path to its events.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runExtract,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().StringVarP(&inputDir, "dir", "d", "", "scan a directory for calendar images")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default derived from the input)")
	rootCmd.Flags().StringVarP(&modelName, "model", "m", "llama3", "language model name")
	rootCmd.Flags().StringVar(&provider, "provider", "", "language model provider: ollama or openrouter")
	rootCmd.Flags().StringVarP(&format, "format", "f", "", "output format: json or yaml")
	rootCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write a Prometheus textfile after the run")
	rootCmd.Flags().BoolVar(&repairJSON, "repair-json", false, "repair malformed JSON before falling back to line parsing")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
