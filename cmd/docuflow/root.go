package main

import (
	"github.com/spf13/cobra"

	"github.com/kdocs/docuflow/internal/api"
	"github.com/kdocs/docuflow/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "docuflow",
	Short: "Translate scanned Korean civil documents into formatted documents",
	Long: `Docuflow turns scanned Korean civil documents into translated Word documents.

The pipeline includes:
  - Image download (paths, http(s), s3://, PDF pages) and binarization
  - Table OCR for real-estate registry extracts
  - LLM structuring into JSON, with OCR cells the model dropped restored
  - Batched JSON translation with retry
  - Per-language document templates (docx, or xlsx for registry tables)`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docuflow/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "docuflow home directory (default: ~/.docuflow)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml, json or summary",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
