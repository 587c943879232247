package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"idverify/internal/models"
	"idverify/internal/pipeline"
)

const verifyRequestSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["ocrFields", "userFields", "detectedType", "userSelectedType", "classifierConfidence"],
  "properties": {
    "ocrFields": {"$ref": "#/$defs/fieldSet"},
    "userFields": {"$ref": "#/$defs/fieldSet"},
    "detectedType": {"type": "string", "minLength": 1},
    "userSelectedType": {"type": "string", "minLength": 1},
    "classifierConfidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "$defs": {
    "fieldSet": {
      "type": "object",
      "propertyNames": {"enum": ["fullName", "address", "idNumber", "birthDate", "firstName", "middleName", "lastName", "school"]},
      "additionalProperties": {"type": "string"}
    }
  }
}`

var verifySchema = jsonschema.MustCompileString("verify-request.json", verifyRequestSchema)

// VerifyDocument: POST /api/v1/verify-document
// multipart/form-data with the image under "file" and the claims as
// userSelectedType, userFullName, userAddress, userIDNumber.
func (a *API) VerifyDocument(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := a.receiveImage(w, r)
	if !ok {
		return
	}
	defer cleanup()

	claims := pipeline.Claims{
		UserSelectedType: formValue(r, "userSelectedType", "documentType"),
		Fields:           models.FieldSet{},
	}
	claims.Fields.Set(models.FieldFullName, formValue(r, "userFullName", "fullName"))
	claims.Fields.Set(models.FieldAddress, formValue(r, "userAddress", "address"))
	claims.Fields.Set(models.FieldIDNumber, formValue(r, "userIDNumber", "userIdNumber", "idNumber"))

	out, err := a.verifier.VerifyImage(r.Context(), path, claims)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSONResp(w, http.StatusOK, a.respond(r, out))
}

// VerifyFields: POST /api/v1/verify
// JSON body carrying already-extracted OCR fields and the user's claims.
func (a *API) VerifyFields(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		badRequest(w, "failed to read request body")
		return
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if err := verifySchema.Validate(doc); err != nil {
		badRequest(w, schemaMessage(err))
		return
	}

	var req models.VerificationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	out, err := a.verifier.VerifyFields(req)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSONResp(w, http.StatusOK, a.respond(r, out))
}

// persist stores the outcome summary when a store is configured.
func (a *API) persist(ctx context.Context, out pipeline.Outcome) bool {
	if a.store == nil {
		return false
	}
	if err := a.store.Save(ctx, out.Record()); err != nil {
		a.logFor(ctx).Error("failed to store verification", zap.String("id", out.ID), zap.Error(err))
		return false
	}
	return true
}

// respond stores the outcome and shapes the response body.
func (a *API) respond(r *http.Request, out pipeline.Outcome) map[string]any {
	return map[string]any{
		"status": "success",
		"stored": a.persist(r.Context(), out),
		"verification": map[string]any{
			"id":                   out.ID,
			"isVerified":           out.Verdict.IsVerified,
			"isDocumentMatch":      out.Verdict.IsDocumentMatch,
			"isDataMatch":          out.Verdict.IsDataMatch,
			"recommendation":       out.Verdict.Recommendation,
			"requiresManualReview": out.Verdict.RequiresManualReview,
			"verificationLevel":    out.Report.VerificationLevel,
			"matchScore":           out.Report.MatchPercentage,
			"systemWarning":        out.Verdict.SystemWarning,
			"userMessage":          out.Verdict.UserMessage,
		},
		"classification": map[string]any{
			"detectedIdType":   out.DetectedType,
			"userSelectedType": out.UserSelectedType,
			"confidenceScore":  out.ClassifierConfidence,
			"available":        out.Classification.Available,
			"source":           out.Classification.Source,
			"predictions":      out.Classification.Predictions,
		},
		"ocrComparison": map[string]any{
			"ocrExtracted":      nonNil(out.Extraction.Fields),
			"userProvided":      nonNil(out.UserFields),
			"comparisonDetails": out.Report,
			"provenance":        out.Extraction.Provenance,
			"degraded":          out.Extraction.Degraded,
			"ocrConfidence":     out.OCR.Confidence,
			"ocrEngine":         out.OCR.Engine,
		},
		"notices": out.Notices,
	}
}

func formValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.FormValue(k)); v != "" {
			return v
		}
	}
	return ""
}

func nonNil(fs models.FieldSet) models.FieldSet {
	if fs == nil {
		return models.FieldSet{}
	}
	return fs
}

func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		loc := leaf.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return "invalid request at " + loc + ": " + leaf.Message
	}
	return err.Error()
}
