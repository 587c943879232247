package extract

import (
	"reflect"
	"strings"
	"testing"

	"idverify/internal/doctype"
	"idverify/internal/models"
	"idverify/internal/normalize"
)

func TestExtract_StudentCard(t *testing.T) {
	res := Extract("JUAN DELA CRUZ\nSTUDENT NO: 12345678\nBULAN, SORSOGON", doctype.Unknown)

	want := models.FieldSet{
		models.FieldFullName: "JUAN DELA CRUZ",
		models.FieldIDNumber: "12345678",
		models.FieldAddress:  "BULAN, SORSOGON",
	}
	if !reflect.DeepEqual(res.Fields, want) {
		t.Fatalf("fields = %v, want %v", res.Fields, want)
	}
	if res.Degraded {
		t.Error("expected a non-degraded result")
	}
	if got := res.Provenance[models.FieldIDNumber]; got != TierLabeled {
		t.Errorf("idNumber tier = %q, want %q", got, TierLabeled)
	}
	if got := res.Provenance[models.FieldFullName]; got != TierPositional {
		t.Errorf("fullName tier = %q, want %q", got, TierPositional)
	}
}

func TestExtract_Empty(t *testing.T) {
	for _, raw := range []string{"", "   \n\n", "@@@ ~~~"} {
		res := Extract(raw, doctype.Unknown)
		if !res.Fields.Empty() {
			t.Errorf("Extract(%q) = %v, want no fields", raw, res.Fields)
		}
		if res.Degraded {
			t.Errorf("Extract(%q) flagged degraded with no fields", raw)
		}
	}
}

func TestExtract_Idempotent(t *testing.T) {
	texts := []string{
		"JUAN DELA CRUZ\nSTUDENT NO: 12345678\nBULAN, SORSOGON",
		"APELYIDO/LAST NAME\nDELA CRUZ\nMGA PANGALAN/GIVEN NAMES\nJUAN\nGITNANG APELYIDO/MIDDLE NAME\nSANTOS",
		"Student Juan Cruz",
	}
	for _, raw := range texts {
		norm := normalize.Normalize(raw)
		a := FromText(norm, doctype.Unknown)
		b := FromText(norm, doctype.Unknown)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("extraction of %q is not stable: %v vs %v", raw, a, b)
		}
	}
}

func TestExtract_BilingualLabelsSynthesizeFullName(t *testing.T) {
	raw := "REPUBLIKA NG PILIPINAS\nAPELYIDO/LAST NAME\nDELA CRUZ\nMGA PANGALAN/GIVEN NAMES\nJUAN\nGITNANG APELYIDO/MIDDLE NAME\nSANTOS\nPETSA NG KAPANGANAKAN/DATE OF BIRTH\nJANUARY 15, 1990"
	res := Extract(raw, doctype.NationalID)

	checks := map[models.Field]string{
		models.FieldLastName:   "DELA CRUZ",
		models.FieldFirstName:  "JUAN",
		models.FieldMiddleName: "SANTOS",
		models.FieldFullName:   "JUAN SANTOS DELA CRUZ",
		models.FieldBirthDate:  "JANUARY 15, 1990",
	}
	for f, want := range checks {
		if got, _ := res.Fields.Get(f); got != want {
			t.Errorf("%s = %q, want %q", f, got, want)
		}
	}
}

func TestExtract_LabeledFilipino(t *testing.T) {
	raw := "Pangalan: Maria Clara Reyes\nTirahan: Purok 3, Brgy. Lajong, Bulan\nID No. 2021-00123"
	res := Extract(raw, doctype.Unknown)

	if got, _ := res.Fields.Get(models.FieldFullName); got != "MARIA CLARA REYES" {
		t.Errorf("fullName = %q", got)
	}
	if got, _ := res.Fields.Get(models.FieldAddress); got != "PUROK 3, BRGY. LAJONG, BULAN" {
		t.Errorf("address = %q", got)
	}
	if got, _ := res.Fields.Get(models.FieldIDNumber); got != "2021-00123" {
		t.Errorf("idNumber = %q", got)
	}
}

func TestExtract_CommaLayout(t *testing.T) {
	res := Extract("CRUZ, JUAN S.\nLICENSE NO: N01-23-456789", doctype.DriversLicense)

	if got, _ := res.Fields.Get(models.FieldLastName); got != "CRUZ" {
		t.Errorf("lastName = %q", got)
	}
	if got, _ := res.Fields.Get(models.FieldFullName); got != "JUAN S. CRUZ" {
		t.Errorf("fullName = %q", got)
	}
	if got, _ := res.Fields.Get(models.FieldIDNumber); got != "N01-23-456789" {
		t.Errorf("idNumber = %q", got)
	}
}

func TestExtract_NumericLayouts(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		hint doctype.Type
		want string
	}{
		{"philsys", "PHILSYS CARD\n1234-5678-9012-3456", doctype.NationalID, "1234-5678-9012-3456"},
		{"passport", "PASAPORTE\nP1234567A", doctype.Passport, "P1234567A"},
		{"eight digits", "SOME CARD\nREF 20231234", doctype.Unknown, "20231234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw, tt.hint)
			if got, _ := res.Fields.Get(models.FieldIDNumber); got != tt.want {
				t.Errorf("idNumber = %q, want %q", got, tt.want)
			}
			if res.Provenance[models.FieldIDNumber] != TierNumeric {
				t.Errorf("tier = %q, want %q", res.Provenance[models.FieldIDNumber], TierNumeric)
			}
		})
	}
}

func TestExtract_DateIsNotIDNumber(t *testing.T) {
	res := Extract("ID NO: 01/15/1990", doctype.Unknown)
	if res.Fields.Has(models.FieldIDNumber) {
		t.Errorf("date taken as ID number: %v", res.Fields)
	}
	if got, _ := res.Fields.Get(models.FieldBirthDate); got != "01/15/1990" {
		t.Errorf("birthDate = %q", got)
	}
}

func TestExtract_LocationLineIsNotAName(t *testing.T) {
	res := Extract("Bulan Sorsogon\nSorsogon State University", doctype.Unknown)
	if res.Fields.Has(models.FieldFullName) {
		t.Errorf("location taken as name: %v", res.Fields)
	}
	if got, _ := res.Fields.Get(models.FieldSchool); got != "SORSOGON STATE UNIVERSITY" {
		t.Errorf("school = %q", got)
	}
	if got, _ := res.Fields.Get(models.FieldAddress); got != "BULAN SORSOGON" {
		t.Errorf("address = %q", got)
	}
}

func TestExtract_EmergencyIsDegraded(t *testing.T) {
	res := Extract("Student Juan Cruz", doctype.Unknown)
	if got, _ := res.Fields.Get(models.FieldFullName); got != "STUDENT JUAN CRUZ" {
		t.Fatalf("fullName = %q", got)
	}
	if !res.Degraded {
		t.Error("expected degraded result")
	}
	if res.Provenance[models.FieldFullName] != TierEmergency {
		t.Errorf("tier = %q", res.Provenance[models.FieldFullName])
	}
}

func TestExtract_OverlongValueIsRescanned(t *testing.T) {
	long := "ADDRESS: " + strings.Repeat("LOREM IPSUM ", 12)
	raw := long + "\nJUAN DELA CRUZ\nBRGY. LAJONG, BULAN"
	res := Extract(raw, doctype.Unknown)

	got, _ := res.Fields.Get(models.FieldAddress)
	if got != "BRGY. LAJONG, BULAN" {
		t.Errorf("address = %q, want the short locality line", got)
	}
	if res.Provenance[models.FieldAddress] != TierRecovered {
		t.Errorf("tier = %q, want %q", res.Provenance[models.FieldAddress], TierRecovered)
	}
}

func TestExtract_ValuesNeverBlank(t *testing.T) {
	res := Extract("NAME:\nADDRESS:\nID NO:", doctype.Unknown)
	for f, v := range res.Fields {
		if strings.TrimSpace(v) == "" {
			t.Errorf("field %s stored blank", f)
		}
	}
}

func TestFirstSuccess_EarlierTierWins(t *testing.T) {
	one := func(f models.Field, v string) func(Document) models.FieldSet {
		return func(Document) models.FieldSet { return models.FieldSet{f: v} }
	}
	chain := []Strategy{
		{Tier: TierLabeled, Run: one(models.FieldAddress, "FIRST")},
		{Tier: TierPositional, Run: one(models.FieldAddress, "SECOND")},
		{Tier: TierEmergency, Run: one(models.FieldFullName, "NEVER"), LastResort: true},
	}
	res := FirstSuccess(Document{}, chain)
	if got, _ := res.Fields.Get(models.FieldAddress); got != "FIRST" {
		t.Errorf("address = %q, want FIRST", got)
	}
	if res.Fields.Has(models.FieldFullName) || res.Degraded {
		t.Error("last resort tier ran after earlier tiers succeeded")
	}
}

func TestFirstSuccess_NameFieldsAreGrouped(t *testing.T) {
	chain := []Strategy{
		{Tier: TierLabeled, Run: func(Document) models.FieldSet {
			return models.FieldSet{models.FieldLastName: "DELA CRUZ"}
		}},
		{Tier: TierPositional, Run: func(Document) models.FieldSet {
			return models.FieldSet{models.FieldFullName: "DELA CRUZ", models.FieldAddress: "BULAN"}
		}},
	}
	res := FirstSuccess(Document{}, chain)
	if res.Fields.Has(models.FieldFullName) {
		t.Error("later tier added a name part after an earlier tier found one")
	}
	if !res.Fields.Has(models.FieldAddress) {
		t.Error("non-name field from later tier was dropped")
	}
}

func TestExtractor_CustomLengthLimit(t *testing.T) {
	e := New(20)
	res := e.Extract("ADDRESS: PUROK 3, BRGY. LAJONG, BULAN, SORSOGON\nBRGY LAJONG", doctype.Unknown)
	if got, _ := res.Fields.Get(models.FieldAddress); got != "BRGY LAJONG" {
		t.Errorf("address = %q, want BRGY LAJONG", got)
	}

	res = New(0).Extract("ADDRESS: PUROK 3, BRGY. LAJONG, BULAN, SORSOGON", doctype.Unknown)
	if got, _ := res.Fields.Get(models.FieldAddress); got != "PUROK 3, BRGY. LAJONG, BULAN, SORSOGON" {
		t.Errorf("default limit address = %q", got)
	}
}
