package entities

import (
	"regexp"
	"strings"

	"intent-engine/internal/engine/normalize"
)

var (
	orderNumberRe      = regexp.MustCompile(`\b(?:order|pedido|oc)\s+(?:number\s+|numero\s+|n[o°º]?\.?\s*)?#?\s*(\d{3,})\b`)
	productCodeRe      = regexp.MustCompile(`\b(?:product|produto|item|sku|code|codigo)\s+(?:code\s+|codigo\s+)?#?\s*(\d{3,})\b`)
	manufacturerCodeRe = regexp.MustCompile(`^[a-z]{1,5}-?\d{3,}[a-z0-9]*$`)
	explicitSupplierRe = regexp.MustCompile(`\b(?:supplier|vendor|fornecedor|fornecedora)\s+(?:da\s+|do\s+|de\s+)?([a-z0-9][a-z0-9&.-]*)`)
	applicationRe      = regexp.MustCompile(`\b(?:application|aplicacao|fits|serve\s+(?:em|no|na|para))\s+(?:on\s+|de\s+|do\s+|da\s+|para\s+)?([a-z][a-z0-9-]*(?:\s+\d+)?)`)
	namedProductRe     = regexp.MustCompile(`\b(?:named|called|chamado|chamada)\s+([a-z0-9][a-z0-9 -]*?)(?:\s+(?:from|in|da|do|de|em|na|no)\b|[?.!,]|$)`)
	quotedRe           = regexp.MustCompile(`["“”']([^"“”']{2,})["“”']`)
)

// SupplierCascade resolves the supplier field.
var SupplierCascade = Cascade{
	{Name: "explicit", Find: explicitSupplier},
}

// OrderNumberCascade resolves the order number field.
var OrderNumberCascade = Cascade{
	{Name: "keyword_digits", Find: regexDigits(orderNumberRe)},
}

// ProductCodeCascade resolves the internal product code field.
var ProductCodeCascade = Cascade{
	{Name: "keyword_digits", Find: regexDigits(productCodeRe)},
}

// ManufacturerCodeCascade resolves the manufacturer part number field.
var ManufacturerCodeCascade = Cascade{
	{Name: "alphanumeric", Find: manufacturerCode},
}

// ProductNameCascade resolves the product name field.
var ProductNameCascade = Cascade{
	{Name: "quoted", Find: quotedName},
	{Name: "named", Find: namedProduct},
}

// ApplicationCascade resolves the vehicle/equipment application field.
var ApplicationCascade = Cascade{
	{Name: "explicit", Find: explicitApplication},
}

func regexDigits(re *regexp.Regexp) func(*Input) (string, bool) {
	return func(in *Input) (string, bool) {
		m := re.FindStringSubmatch(in.Text)
		if m == nil {
			return "", false
		}
		return m[1], true
	}
}

func explicitSupplier(in *Input) (string, bool) {
	m := explicitSupplierRe.FindStringSubmatch(in.Text)
	if m == nil || isBrandNoise(m[1]) {
		return "", false
	}
	return strings.ToUpper(strings.TrimRight(m[1], ".")), true
}

// manufacturerCode finds a letters+digits token such as "p550084" or "psl-55",
// skipping tokens that are known brands.
func manufacturerCode(in *Input) (string, bool) {
	for _, tok := range strings.Fields(in.Text) {
		tok = strings.Trim(tok, ".,;:!?()\"'")
		if !manufacturerCodeRe.MatchString(tok) {
			continue
		}
		if in.isKnownBrand(tok) {
			continue
		}
		return strings.ToUpper(tok), true
	}
	return "", false
}

func quotedName(in *Input) (string, bool) {
	m := quotedRe.FindStringSubmatch(in.Raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func namedProduct(in *Input) (string, bool) {
	m := namedProductRe.FindStringSubmatch(in.Text)
	if m == nil || normalize.IsStopword(strings.TrimSpace(m[1])) {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), true
}

func explicitApplication(in *Input) (string, bool) {
	m := applicationRe.FindStringSubmatch(in.Text)
	if m == nil || isBrandNoise(strings.Fields(m[1])[0]) {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}
