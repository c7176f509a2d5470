package entities

import (
	"intent-engine/internal/engine/normalize"
	"intent-engine/internal/models"
)

// Extraction is the detailed result of a pass: the params plus, per field, the
// strategy that produced the value.
type Extraction struct {
	Params  models.Params
	Sources map[models.Field]string
	Dropped []Dropped
}

// Dropped records a candidate removed by the cleanup pass.
type Dropped struct {
	Field  models.Field
	Value  string
	Reason string
}

// Extractor runs one cascade per field. The zero value is not usable; use New.
type Extractor struct {
	cascades []fieldCascade
}

type fieldCascade struct {
	field   models.Field
	cascade Cascade
}

// New returns an Extractor with the standard cascades.
func New() *Extractor {
	return &Extractor{cascades: []fieldCascade{
		{models.FieldOrderNumber, OrderNumberCascade},
		{models.FieldProductCode, ProductCodeCascade},
		{models.FieldBranch, BranchCascade},
		{models.FieldBuyer, BuyerCascade},
		{models.FieldSalesperson, SalespersonCascade},
		{models.FieldSupplier, SupplierCascade},
		{models.FieldBrand, BrandCascade},
		{models.FieldManufacturerCode, ManufacturerCodeCascade},
		{models.FieldProductName, ProductNameCascade},
		{models.FieldApplication, ApplicationCascade},
		{models.FieldPeriod, PeriodCascade},
	}}
}

// Extract returns the params found in question.
func (e *Extractor) Extract(question string, vocab Vocabulary) models.Params {
	return e.ExtractDetailed(question, vocab).Params
}

// ExtractDetailed is Extract plus provenance.
func (e *Extractor) ExtractDetailed(question string, vocab Vocabulary) Extraction {
	in := NewInput(question, vocab)
	out := Extraction{Sources: make(map[models.Field]string)}
	for _, fc := range e.cascades {
		if v, strategy, ok := fc.cascade.Run(in); ok {
			out.Params.Set(fc.field, v)
			out.Sources[fc.field] = strategy
		}
	}
	cleanup(in, &out)
	return out
}

// cleanup removes brand candidates that are really a city or a person's first
// name. A city brand is moved to branch when branch is still empty.
func cleanup(in *Input, out *Extraction) {
	brand, ok := out.Params.Get(models.FieldBrand)
	if !ok {
		return
	}
	nb := normalize.Normalize(brand)

	if code, isCity := cityWords[nb]; isCity {
		out.Params.Clear(models.FieldBrand)
		delete(out.Sources, models.FieldBrand)
		out.Dropped = append(out.Dropped, Dropped{Field: models.FieldBrand, Value: brand, Reason: "city"})
		if !out.Params.Has(models.FieldBranch) {
			out.Params.Set(models.FieldBranch, code)
			out.Sources[models.FieldBranch] = "brand_city"
		}
		return
	}

	for _, f := range []models.Field{models.FieldBuyer, models.FieldSalesperson} {
		person, ok := out.Params.Get(f)
		if !ok {
			continue
		}
		if firstWord(normalize.Normalize(person)) == nb {
			out.Params.Clear(models.FieldBrand)
			delete(out.Sources, models.FieldBrand)
			out.Dropped = append(out.Dropped, Dropped{Field: models.FieldBrand, Value: brand, Reason: string(f)})
			return
		}
	}

	if supplier, ok := out.Params.Get(models.FieldSupplier); ok && normalize.Normalize(supplier) == nb {
		out.Params.Clear(models.FieldBrand)
		delete(out.Sources, models.FieldBrand)
		out.Dropped = append(out.Dropped, Dropped{Field: models.FieldBrand, Value: brand, Reason: "supplier"})
	}
}

// HasStrongEntity reports whether p names something that should trigger a fresh
// query instead of narrowing the previous result. A period alone does not.
func HasStrongEntity(p models.Params) bool {
	for _, f := range models.AllFields {
		if f == models.FieldPeriod {
			continue
		}
		if p.Has(f) {
			return true
		}
	}
	return false
}
