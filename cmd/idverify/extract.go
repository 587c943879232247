package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"idverify/internal/doctype"
	"idverify/internal/extract"
)

var extractType string

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract ID fields from OCR text",
	Long: `Normalize OCR text and extract fullName, address, idNumber and the other
fields. Reads the file argument, or stdin when none is given.

Examples:
  idverify extract scan.txt
  tesseract id.png - | idverify extract --type "National ID" -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		hint := doctype.Resolve(extractType)
		if hint == doctype.Unknown {
			hint = doctype.DetectFromText(text)
		}
		res := extract.New(cfg.Thresholds.MaxFieldLength).Extract(text, hint)
		return writeOutput(cmd.OutOrStdout(), map[string]any{
			"documentType": hint,
			"fields":       res.Fields,
			"provenance":   res.Provenance,
			"degraded":     res.Degraded,
		})
	},
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func init() {
	extractCmd.Flags().StringVar(&extractType, "type", "", "expected document type (hint)")
	rootCmd.AddCommand(extractCmd)
}
