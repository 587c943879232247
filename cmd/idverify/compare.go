package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"idverify/internal/doctype"
	"idverify/internal/extract"
	"idverify/internal/logger"
	"idverify/internal/models"
	"idverify/internal/pipeline"
	"idverify/internal/verdict"
)

var claimFlags struct {
	selectedType string
	detectedType string
	confidence   float64
	fullName     string
	address      string
	idNumber     string
	image        string
}

func claimedFields() models.FieldSet {
	fs := models.FieldSet{}
	fs.Set(models.FieldFullName, claimFlags.fullName)
	fs.Set(models.FieldAddress, claimFlags.address)
	fs.Set(models.FieldIDNumber, claimFlags.idNumber)
	return fs
}

func addClaimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&claimFlags.selectedType, "selected-type", "", "document type the user selected (required)")
	cmd.Flags().StringVar(&claimFlags.fullName, "name", "", "claimed full name")
	cmd.Flags().StringVar(&claimFlags.address, "address", "", "claimed address")
	cmd.Flags().StringVar(&claimFlags.idNumber, "id", "", "claimed ID number")
	_ = cmd.MarkFlagRequired("selected-type")
}

var compareCmd = &cobra.Command{
	Use:   "compare [file]",
	Short: "Compare OCR text against claimed fields",
	Long: `Extract fields from OCR text, compare them with the claims given as flags
and print the comparison report and verdict.

Examples:
  idverify compare scan.txt --selected-type "Student ID" --name "Juan Dela Cruz" --id 12345678
  idverify compare scan.txt --selected-type "Passport" --detected-type "Philippine Passport" --confidence 0.9 --name "Juan Dela Cruz"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		detected := claimFlags.detectedType
		if detected == "" {
			detected = string(doctype.DetectFromText(text))
		}
		ext := extract.New(cfg.Thresholds.MaxFieldLength)
		v := pipeline.New(nil, nil,
			pipeline.WithExtractor(ext),
			pipeline.WithThresholds(thresholds()),
			pipeline.WithLogger(logger.L()),
		)
		out, err := v.VerifyFields(models.VerificationRequest{
			OCRFields:            ext.Extract(text, doctype.Resolve(detected)).Fields,
			UserFields:           claimedFields(),
			DetectedType:         detected,
			UserSelectedType:     claimFlags.selectedType,
			ClassifierConfidence: claimFlags.confidence,
		})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), summary(out))
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an ID image against claimed fields",
	Long: `Run the full pipeline on an image with the configured OCR engine and
classifier.

Example:
  idverify verify --image id.jpg --selected-type "Drivers License" --name "Juan Dela Cruz" --id N01-23-456789`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if claimFlags.image == "" {
			return fmt.Errorf("--image is required")
		}
		v, closers := buildVerifier(cmd.Context(), cfg, logger.L())
		defer func() {
			for _, c := range closers {
				_ = c.Close()
			}
		}()
		out, err := v.VerifyImage(cmd.Context(), claimFlags.image, pipeline.Claims{
			UserSelectedType: claimFlags.selectedType,
			Fields:           claimedFields(),
		})
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), summary(out))
	},
}

func thresholds() verdict.Thresholds {
	return verdict.Thresholds{
		MismatchConfidence: cfg.Thresholds.MismatchConfidence,
		VerifiedConfidence: cfg.Thresholds.VerifiedConfidence,
	}
}

func summary(out pipeline.Outcome) map[string]any {
	return map[string]any{
		"id":           out.ID,
		"detectedType": out.DetectedType,
		"selectedType": out.UserSelectedType,
		"confidence":   out.ClassifierConfidence,
		"ocrFields":    out.Extraction.Fields,
		"userFields":   out.UserFields,
		"report":       out.Report,
		"verdict":      out.Verdict,
		"notices":      out.Notices,
	}
}

func init() {
	addClaimFlags(compareCmd)
	compareCmd.Flags().StringVar(&claimFlags.detectedType, "detected-type", "", "classified document type (default: detected from the text)")
	compareCmd.Flags().Float64Var(&claimFlags.confidence, "confidence", 0, "classifier confidence in [0,1]")

	addClaimFlags(verifyCmd)
	verifyCmd.Flags().StringVar(&claimFlags.image, "image", "", "path to the ID image")

	rootCmd.AddCommand(compareCmd, verifyCmd)
}
