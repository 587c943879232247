package handlers

import (
	"net/http"

	"idverify/internal/classifier"
	"idverify/internal/doctype"
)

// ExtractFields: POST /api/v1/ocr
// Reads the uploaded image and returns the extracted fields. An optional
// documentType form value hints the extractor.
func (a *API) ExtractFields(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := a.receiveImage(w, r)
	if !ok {
		return
	}
	defer cleanup()

	cls := classifier.Unavailable()
	if hint := formValue(r, "documentType", "userSelectedType"); hint != "" {
		if t := doctype.Resolve(hint); t != doctype.Unknown {
			cls = classifier.Classification{DetectedType: t, Confidence: 1, Available: true, Source: "request"}
		}
	}
	notices := []string{}
	res, ext := a.verifier.Read(r.Context(), path, cls, &notices)
	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":     "success",
		"text":       res.Text,
		"confidence": res.Confidence,
		"engine":     res.Engine,
		"fields":     nonNil(ext.Fields),
		"provenance": ext.Provenance,
		"degraded":   ext.Degraded,
		"notices":    notices,
	})
}

// ClassifyDocument: POST /api/v1/classify
func (a *API) ClassifyDocument(w http.ResponseWriter, r *http.Request) {
	path, cleanup, ok := a.receiveImage(w, r)
	if !ok {
		return
	}
	defer cleanup()

	notices := []string{}
	cls := a.verifier.Classify(r.Context(), path, &notices)
	writeJSONResp(w, http.StatusOK, map[string]any{
		"status":          "success",
		"detectedIdType":  cls.DetectedType,
		"confidenceScore": cls.Confidence,
		"available":       cls.Available,
		"source":          cls.Source,
		"predictions":     cls.Predictions,
		"notices":         notices,
	})
}
