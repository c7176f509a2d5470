package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intent-engine/internal/models"
)

var testVocab = Vocabulary{
	Brands:   []string{"DONALDSON", "MANN", "MANN FILTER", "TECFIL", "FLEETGUARD"},
	Branches: []string{"MATRIZ", "CD NORTE"},
	Buyers:   []string{"JOAO SILVA", "MARIA SOUZA", "MARIA LIMA", "PEDRO ALVES"},
}

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     map[models.Field]string
	}{
		{
			name:     "preposition brand",
			question: "late orders from Donaldson",
			want:     map[models.Field]string{models.FieldBrand: "DONALDSON"},
		},
		{
			name:     "preposition brand unknown to vocabulary",
			question: "compras atrasadas da Wega",
			want:     map[models.Field]string{models.FieldBrand: "WEGA"},
		},
		{
			name:     "explicit brand beats preposition",
			question: "orders from last week of brand tecfil",
			want:     map[models.Field]string{models.FieldBrand: "TECFIL", models.FieldPeriod: PeriodLastWeek},
		},
		{
			name:     "vocabulary prefers longest brand",
			question: "estoque mann filter",
			want:     map[models.Field]string{models.FieldBrand: "MANN FILTER"},
		},
		{
			name:     "fuzzy brand",
			question: "estoque fleetgard",
			want:     map[models.Field]string{models.FieldBrand: "FLEETGUARD"},
		},
		{
			name:     "city and brand",
			question: "compras de São Paulo da Donaldson",
			want:     map[models.Field]string{models.FieldBrand: "DONALDSON", models.FieldBranch: "SP"},
		},
		{
			name:     "explicit branch city",
			question: "vendas da filial de Belo Horizonte",
			want:     map[models.Field]string{models.FieldBranch: "BH"},
		},
		{
			name:     "vocabulary branch",
			question: "estoque no cd norte",
			want:     map[models.Field]string{models.FieldBranch: "CD NORTE"},
		},
		{
			name:     "buyer full name",
			question: "pending purchases for pedro alves",
			want:     map[models.Field]string{models.FieldBuyer: "PEDRO ALVES"},
		},
		{
			name:     "ambiguous buyer first name yields nothing",
			question: "compras da maria",
			want:     map[models.Field]string{},
		},
		{
			name:     "explicit salesperson",
			question: "vendas do vendedor carlos ontem",
			want:     map[models.Field]string{models.FieldSalesperson: "CARLOS", models.FieldPeriod: PeriodYesterday},
		},
		{
			name:     "order number",
			question: "status do pedido número 123456",
			want:     map[models.Field]string{models.FieldOrderNumber: "123456"},
		},
		{
			name:     "product code and manufacturer code",
			question: "estoque do produto 88123 p550084",
			want: map[models.Field]string{
				models.FieldProductCode:      "88123",
				models.FieldManufacturerCode: "P550084",
			},
		},
		{
			name:     "quoted product name keeps case",
			question: `buscar "Filtro de Ar X" na matriz`,
			want:     map[models.Field]string{models.FieldProductName: "Filtro de Ar X", models.FieldBranch: "MATRIZ"},
		},
		{
			name:     "application",
			question: "filtro que serve em scania 113",
			want:     map[models.Field]string{models.FieldApplication: "SCANIA 113"},
		},
		{
			name:     "explicit supplier",
			question: "compras do fornecedor acme",
			want:     map[models.Field]string{models.FieldSupplier: "ACME"},
		},
		{
			name:     "nothing in a follow-up",
			question: "give me those 41 delayed ones",
			want:     map[models.Field]string{},
		},
		{
			name:     "sort key after by",
			question: "orders by date",
			want:     map[models.Field]string{},
		},
		{
			name:     "column name after de",
			question: "pedidos atrasados por data de entrega",
			want:     map[models.Field]string{},
		},
	}

	x := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.Extract(tt.question, testVocab)
			assert.Equal(t, tt.want, fieldMap(got))
		})
	}
}

func fieldMap(p models.Params) map[models.Field]string {
	out := map[models.Field]string{}
	for _, f := range models.AllFields {
		if v, ok := p.Get(f); ok {
			out[f] = v
		}
	}
	return out
}

func TestExtractDetailed_ReportsStrategies(t *testing.T) {
	ex := New().ExtractDetailed("late orders from Donaldson this month", testVocab)
	assert.Equal(t, "preposition", ex.Sources[models.FieldBrand])
	assert.Equal(t, "this_month", ex.Sources[models.FieldPeriod])
}

func TestCleanup_CityBrandMovesToBranch(t *testing.T) {
	ex := New().ExtractDetailed("pedidos da marca paulo", Vocabulary{})
	assert.False(t, ex.Params.Has(models.FieldBrand))
	branch, ok := ex.Params.Get(models.FieldBranch)
	require.True(t, ok)
	assert.Equal(t, "SP", branch)
	assert.Equal(t, "brand_city", ex.Sources[models.FieldBranch])
	require.Len(t, ex.Dropped, 1)
	assert.Equal(t, "city", ex.Dropped[0].Reason)
}

func TestCleanup_CityBrandKeepsExistingBranch(t *testing.T) {
	ex := New().ExtractDetailed("marca recife na filial cwb", Vocabulary{})
	assert.False(t, ex.Params.Has(models.FieldBrand))
	branch, _ := ex.Params.Get(models.FieldBranch)
	assert.Equal(t, "CWB", branch)
}

func TestCleanup_BrandMatchingBuyerFirstName(t *testing.T) {
	ex := New().ExtractDetailed("pedidos do comprador marcos", Vocabulary{Brands: []string{"MARCOS"}})
	assert.False(t, ex.Params.Has(models.FieldBrand))
	buyer, _ := ex.Params.Get(models.FieldBuyer)
	assert.Equal(t, "MARCOS", buyer)
	require.Len(t, ex.Dropped, 1)
	assert.Equal(t, "buyer", ex.Dropped[0].Reason)
}

func TestHasStrongEntity(t *testing.T) {
	var p models.Params
	assert.False(t, HasStrongEntity(p))
	p.Set(models.FieldPeriod, PeriodToday)
	assert.False(t, HasStrongEntity(p))
	p.Set(models.FieldBrand, "DONALDSON")
	assert.True(t, HasStrongEntity(p))
}

func TestCityCode(t *testing.T) {
	code, ok := CityCode("Goiânia")
	assert.True(t, ok)
	assert.Equal(t, "GYN", code)
	_, ok = CityCode("Lisboa")
	assert.False(t, ok)
}
