package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"idverify/internal/models"
)

// maxBatchRows bounds one CSV upload.
const maxBatchRows = 500

var batchHeaders = []string{
	"detected_type", "user_selected_type", "classifier_confidence",
	"ocr_full_name", "ocr_address", "ocr_id_number",
	"user_full_name", "user_address", "user_id_number",
}

type batchRow struct {
	Row                  int                      `json:"row"`
	ID                   string                   `json:"id,omitempty"`
	Recommendation       models.Recommendation    `json:"recommendation,omitempty"`
	VerificationLevel    models.VerificationLevel `json:"verificationLevel,omitempty"`
	MatchScore           float64                  `json:"matchScore"`
	RequiresManualReview bool                     `json:"requiresManualReview"`
	Error                string                   `json:"error,omitempty"`
}

// VerifyBatch: POST /api/v1/verify-batch
// CSV upload of pre-extracted fields and claims, one verification per row.
// Invalid rows are reported and do not stop the batch.
func (a *API) VerifyBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.limit)
	if err := r.ParseMultipartForm(a.limit); err != nil {
		badRequest(w, "failed to parse form")
		return
	}
	file, header, err := formFile(r, "recordsCsv", "records", "csv", "file", "upload")
	if err != nil {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status":         "Bad_Request",
			"message":        "recordsCsv file is required",
			"expected_field": "recordsCsv",
		})
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		badRequest(w, "unable to read CSV header")
		return
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(strings.ToLower(headers[i]))
	}
	if !equalStringSlices(headers, batchHeaders) {
		writeJSONResp(w, http.StatusBadRequest, map[string]any{
			"status":   "Bad_Request",
			"message":  "Invalid CSV format. Please use the provided template.",
			"expected": batchHeaders,
			"got":      headers,
		})
		return
	}

	results := []batchRow{}
	counts := map[models.Recommendation]int{}
	failed := 0
	for n := 1; ; n++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			badRequest(w, fmt.Sprintf("failed to read CSV row %d", n))
			return
		}
		if n > maxBatchRows {
			badRequest(w, fmt.Sprintf("too many rows; at most %d per upload", maxBatchRows))
			return
		}

		row := batchRow{Row: n}
		req, perr := rowRequest(rec)
		if perr != nil {
			row.Error = perr.Error()
			failed++
			results = append(results, row)
			continue
		}
		out, verr := a.verifier.VerifyFields(req)
		if verr != nil {
			row.Error = verr.Error()
			failed++
			results = append(results, row)
			continue
		}
		a.persist(r.Context(), out)
		row.ID = out.ID
		row.Recommendation = out.Verdict.Recommendation
		row.VerificationLevel = out.Report.VerificationLevel
		row.MatchScore = out.Report.MatchPercentage
		row.RequiresManualReview = out.Verdict.RequiresManualReview
		counts[out.Verdict.Recommendation]++
		results = append(results, row)
	}

	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Verified %d rows. %d rows failed.", len(results)-failed, failed),
		"file":    header.Filename,
		"summary": map[string]int{
			"approve": counts[models.RecommendApprove],
			"review":  counts[models.RecommendReview],
			"reject":  counts[models.RecommendReject],
			"failed":  failed,
		},
		"results": results,
	})
}

func rowRequest(rec []string) (models.VerificationRequest, error) {
	if len(rec) != len(batchHeaders) {
		return models.VerificationRequest{}, errors.New("row does not match header length")
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	conf := 0.0
	if rec[2] != "" {
		c, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return models.VerificationRequest{}, errors.New("invalid classifier_confidence")
		}
		conf = c
	}
	req := models.VerificationRequest{
		DetectedType:         rec[0],
		UserSelectedType:     rec[1],
		ClassifierConfidence: conf,
		OCRFields:            models.FieldSet{},
		UserFields:           models.FieldSet{},
	}
	req.OCRFields.Set(models.FieldFullName, rec[3])
	req.OCRFields.Set(models.FieldAddress, rec[4])
	req.OCRFields.Set(models.FieldIDNumber, rec[5])
	req.UserFields.Set(models.FieldFullName, rec[6])
	req.UserFields.Set(models.FieldAddress, rec[7])
	req.UserFields.Set(models.FieldIDNumber, rec[8])
	return req, nil
}

func equalStringSlices(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
