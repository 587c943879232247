// Package extract turns normalized OCR text into a FieldSet.
//
// Extraction runs an ordered chain of strategies. Each strategy is a pure
// function of the document; for every field the first strategy that
// produces a value wins. Extraction never fails: an empty FieldSet means
// nothing readable was found.
package extract

import (
	"regexp"
	"strings"

	"idverify/internal/doctype"
	"idverify/internal/models"
	"idverify/internal/normalize"
)

// DefaultMaxFieldLen is the longest value accepted before it is treated
// as a capture of the whole OCR block.
const DefaultMaxFieldLen = 100

// Tier tags the strategy that produced a value.
type Tier string

const (
	TierLabeled    Tier = "labeled"
	TierPositional Tier = "positional"
	TierNumeric    Tier = "numeric"
	TierEmergency  Tier = "emergency"
	// TierRecovered marks a value found by re-scanning lines after the
	// original value was too long.
	TierRecovered Tier = "recovered"
)

// Document is the input to every strategy.
type Document struct {
	Text normalize.Text
	// Hint is the expected document type; Unknown when not known.
	Hint doctype.Type
}

// Strategy is one tier of the extraction chain.
type Strategy struct {
	Tier Tier
	Run  func(Document) models.FieldSet
	// LastResort strategies run only when every earlier tier found nothing.
	LastResort bool
}

// Result is the outcome of an extraction.
type Result struct {
	Fields     models.FieldSet       `json:"fields"`
	Provenance map[models.Field]Tier `json:"provenance"`
	// Degraded is set when the fields came from the emergency tier.
	Degraded bool `json:"degraded"`
}

// Chain returns the default strategy order.
func Chain() []Strategy {
	return []Strategy{
		{Tier: TierLabeled, Run: Labeled},
		{Tier: TierPositional, Run: Positional},
		{Tier: TierNumeric, Run: Numeric},
		{Tier: TierEmergency, Run: Emergency, LastResort: true},
	}
}

// Extractor runs a strategy chain. The zero value is not usable; use New.
type Extractor struct {
	strategies  []Strategy
	maxFieldLen int
}

// New returns an Extractor with the default chain. maxFieldLen <= 0 selects
// DefaultMaxFieldLen.
func New(maxFieldLen int) *Extractor {
	if maxFieldLen <= 0 {
		maxFieldLen = DefaultMaxFieldLen
	}
	return &Extractor{strategies: Chain(), maxFieldLen: maxFieldLen}
}

var std = New(DefaultMaxFieldLen)

// Extract normalizes raw OCR text and extracts its fields with the
// default Extractor.
func Extract(raw string, hint doctype.Type) Result {
	return std.Extract(raw, hint)
}

// FromText extracts fields from already normalized text with the default
// Extractor.
func FromText(t normalize.Text, hint doctype.Type) Result {
	return std.FromText(t, hint)
}

// Extract normalizes raw OCR text and extracts its fields.
func (e *Extractor) Extract(raw string, hint doctype.Type) Result {
	return e.FromText(normalize.Normalize(raw), hint)
}

// FromText extracts fields from already normalized text.
func (e *Extractor) FromText(t normalize.Text, hint doctype.Type) Result {
	if hint == "" {
		hint = doctype.Unknown
	}
	doc := Document{Text: t, Hint: hint}
	res := FirstSuccess(doc, e.strategies)
	e.finish(doc, &res)
	return res
}

var nameFields = map[models.Field]bool{
	models.FieldFullName:   true,
	models.FieldFirstName:  true,
	models.FieldMiddleName: true,
	models.FieldLastName:   true,
}

func hasName(fs models.FieldSet) bool {
	for f := range nameFields {
		if fs.Has(f) {
			return true
		}
	}
	return false
}

// FirstSuccess runs strategies in order and keeps, per field, the first
// value found. Name fields are taken as a group: once a tier has produced
// any part of the name, later tiers cannot add name parts.
func FirstSuccess(doc Document, strategies []Strategy) Result {
	res := Result{
		Fields:     models.FieldSet{},
		Provenance: map[models.Field]Tier{},
	}
	for _, s := range strategies {
		if s.LastResort && !res.Fields.Empty() {
			continue
		}
		out := s.Run(doc)
		if out.Empty() {
			continue
		}
		nameTaken := hasName(res.Fields)
		for _, f := range out.Keys() {
			if nameFields[f] && nameTaken {
				continue
			}
			v, _ := out.Get(f)
			if res.Fields.SetIfAbsent(f, v) {
				res.Provenance[f] = s.Tier
			}
		}
		if s.LastResort && !out.Empty() {
			res.Degraded = true
		}
	}
	return res
}

var idChars = regexp.MustCompile(`[^A-Z0-9-]+`)

// finish repairs over-long values, synthesizes the full name and
// normalizes case.
func (e *Extractor) finish(doc Document, res *Result) {
	for _, f := range res.Fields.Keys() {
		v, _ := res.Fields.Get(f)
		if len(v) <= e.maxFieldLen {
			continue
		}
		delete(res.Fields, f)
		delete(res.Provenance, f)
		if nv, ok := e.rescan(doc, f); ok {
			res.Fields.Set(f, nv)
			res.Provenance[f] = TierRecovered
		}
	}

	if !res.Fields.Has(models.FieldFullName) {
		var parts []string
		for _, f := range []models.Field{models.FieldFirstName, models.FieldMiddleName, models.FieldLastName} {
			if v, ok := res.Fields.Get(f); ok {
				parts = append(parts, v)
			}
		}
		if len(parts) > 0 && (res.Fields.Has(models.FieldFirstName) || res.Fields.Has(models.FieldLastName)) {
			res.Fields.Set(models.FieldFullName, strings.Join(parts, " "))
			res.Provenance[models.FieldFullName] = res.Provenance[firstPresent(res.Fields)]
		}
	}

	for _, f := range res.Fields.Keys() {
		v, _ := res.Fields.Get(f)
		switch f {
		case models.FieldIDNumber:
			v = idChars.ReplaceAllString(strings.ToUpper(v), "")
		case models.FieldBirthDate:
			v = strings.ToUpper(strings.TrimSpace(v))
		default:
			v = strings.Join(strings.Fields(strings.ToUpper(v)), " ")
			v = strings.Trim(v, " ,.;:-")
		}
		if v == "" {
			delete(res.Fields, f)
			delete(res.Provenance, f)
			continue
		}
		res.Fields[f] = v
	}
}

func firstPresent(fs models.FieldSet) models.Field {
	for _, f := range []models.Field{models.FieldFirstName, models.FieldLastName, models.FieldMiddleName} {
		if fs.Has(f) {
			return f
		}
	}
	return models.FieldFullName
}

// rescan looks for a replacement value for f among lines short enough to
// hold a single field.
func (e *Extractor) rescan(doc Document, f models.Field) (string, bool) {
	var short []string
	for _, ln := range doc.Text.Lines {
		if len(ln) <= e.maxFieldLen {
			short = append(short, ln)
		}
	}
	switch f {
	case models.FieldFullName:
		return scanNameLine(short)
	case models.FieldAddress:
		return scanAddressLine(short)
	case models.FieldSchool:
		return scanSchoolLine(short)
	case models.FieldIDNumber:
		return scanIDNumber(strings.ToUpper(strings.Join(short, "\n")), doc.Hint)
	}
	return "", false
}
