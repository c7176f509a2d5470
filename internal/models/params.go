// internal/models/params.go
package models

import (
	"sort"
	"strings"
)

// Field names a recognized entity slot.
type Field string

const (
	FieldBrand            Field = "brand"
	FieldSupplier         Field = "supplier"
	FieldBranch           Field = "branch"
	FieldBuyer            Field = "buyer"
	FieldSalesperson      Field = "salesperson"
	FieldPeriod           Field = "period"
	FieldProductCode      Field = "product_code"
	FieldManufacturerCode Field = "manufacturer_code"
	FieldProductName      Field = "product_name"
	FieldApplication      Field = "application"
	FieldOrderNumber      Field = "order_number"
)

// AllFields lists every recognized field in a stable order.
var AllFields = []Field{
	FieldBrand,
	FieldSupplier,
	FieldBranch,
	FieldBuyer,
	FieldSalesperson,
	FieldPeriod,
	FieldProductCode,
	FieldManufacturerCode,
	FieldProductName,
	FieldApplication,
	FieldOrderNumber,
}

// Params holds the entities extracted from a question. A nil field is absent.
type Params struct {
	Brand            *string `json:"brand,omitempty"`
	Supplier         *string `json:"supplier,omitempty"`
	Branch           *string `json:"branch,omitempty"`
	Buyer            *string `json:"buyer,omitempty"`
	Salesperson      *string `json:"salesperson,omitempty"`
	Period           *string `json:"period,omitempty"`
	ProductCode      *string `json:"product_code,omitempty"`
	ManufacturerCode *string `json:"manufacturer_code,omitempty"`
	ProductName      *string `json:"product_name,omitempty"`
	Application      *string `json:"application,omitempty"`
	OrderNumber      *string `json:"order_number,omitempty"`
}

func (p *Params) slot(f Field) **string {
	switch f {
	case FieldBrand:
		return &p.Brand
	case FieldSupplier:
		return &p.Supplier
	case FieldBranch:
		return &p.Branch
	case FieldBuyer:
		return &p.Buyer
	case FieldSalesperson:
		return &p.Salesperson
	case FieldPeriod:
		return &p.Period
	case FieldProductCode:
		return &p.ProductCode
	case FieldManufacturerCode:
		return &p.ManufacturerCode
	case FieldProductName:
		return &p.ProductName
	case FieldApplication:
		return &p.Application
	case FieldOrderNumber:
		return &p.OrderNumber
	}
	return nil
}

// Get returns the value of f and whether it is set.
func (p Params) Get(f Field) (string, bool) {
	s := p.slot(f)
	if s == nil || *s == nil {
		return "", false
	}
	return **s, true
}

// Set assigns f. An empty value clears the field.
func (p *Params) Set(f Field, value string) {
	s := p.slot(f)
	if s == nil {
		return
	}
	value = strings.TrimSpace(value)
	if value == "" {
		*s = nil
		return
	}
	v := value
	*s = &v
}

// Clear removes f.
func (p *Params) Clear(f Field) {
	if s := p.slot(f); s != nil {
		*s = nil
	}
}

// Has reports whether f is set.
func (p Params) Has(f Field) bool {
	_, ok := p.Get(f)
	return ok
}

// IsEmpty reports whether no field is set.
func (p Params) IsEmpty() bool {
	for _, f := range AllFields {
		if p.Has(f) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	var out Params
	for _, f := range AllFields {
		if v, ok := p.Get(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

// Map flattens the set fields, mostly for logging and prompts.
func (p Params) Map() map[string]string {
	out := make(map[string]string)
	for _, f := range AllFields {
		if v, ok := p.Get(f); ok {
			out[string(f)] = v
		}
	}
	return out
}

// String renders set fields as "k=v" pairs sorted by key.
func (p Params) String() string {
	m := p.Map()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, " ")
}

// ParamsFromMap builds Params from string keys, ignoring unknown keys.
func ParamsFromMap(m map[string]string) Params {
	var p Params
	for _, f := range AllFields {
		if v, ok := m[string(f)]; ok {
			p.Set(f, v)
		}
	}
	return p
}

// StrPtr is a small helper for literals in tests and fixtures.
func StrPtr(s string) *string { return &s }
