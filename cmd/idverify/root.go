package main

import (
	"github.com/spf13/cobra"

	"idverify/internal/config"
	"idverify/internal/logger"
)

var (
	cfgFile      string
	outputFormat string
	cfg          *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "idverify",
	Short: "Philippine ID verification: OCR field extraction and claim matching",
	Long: `idverify checks an uploaded Philippine ID against what the user typed in.

It classifies the document type, reads the card with OCR, extracts the name,
address and ID number, compares them with the user's claims and composes an
APPROVE, REVIEW or REJECT verdict.`,
	Version:       gitRelease,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
		setOutputFormat(outputFormat)
		return logger.Init(logger.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or ~/.idverify/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
}
