package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCascade_FirstMatchWins(t *testing.T) {
	c := Cascade{
		{Name: "never", Find: func(*Input) (string, bool) { return "", false }},
		{Name: "blank", Find: func(*Input) (string, bool) { return "  ", true }},
		{Name: "first", Find: func(*Input) (string, bool) { return "A", true }},
		{Name: "second", Find: func(*Input) (string, bool) { return "B", true }},
	}
	v, strategy, ok := c.Run(NewInput("anything", Vocabulary{}))
	assert.True(t, ok)
	assert.Equal(t, "A", v)
	assert.Equal(t, "first", strategy)
	assert.Equal(t, []string{"never", "blank", "first", "second"}, c.Names())
}

func TestPeriodCascade_Order(t *testing.T) {
	tests := []struct {
		question string
		want     string
	}{
		{"vendas de hoje", PeriodToday},
		{"sales yesterday", PeriodYesterday},
		{"compras dos ultimos 15 dias", "last_15_days"},
		{"sales last week", PeriodLastWeek},
		{"vendas da semana passada", PeriodLastWeek},
		{"vendas desta semana", PeriodThisWeek},
		{"vendas nesta semana", PeriodThisWeek},
		{"sales last month", PeriodLastMonth},
		{"faturamento do mês passado", PeriodLastMonth},
		{"sales last year", PeriodLastYear},
		{"vendas deste ano", PeriodThisYear},
		{"vendas neste ano", PeriodThisYear},
		{"ano passado e este mes", PeriodLastYear},
		{"vendas do mes", PeriodThisMonth},
		{"sales this month", PeriodThisMonth},
		{"today versus last month", PeriodToday},
	}
	for _, tt := range tests {
		t.Run(tt.question, func(t *testing.T) {
			v, _, ok := PeriodCascade.Run(NewInput(tt.question, Vocabulary{}))
			assert.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestBrandStrategies_Independently(t *testing.T) {
	in := NewInput("lista de pedidos atrasados da Donaldsn", Vocabulary{Brands: []string{"DONALDSON"}})

	_, ok := explicitBrand(in)
	assert.False(t, ok)

	v, ok := prepositionBrand(in)
	assert.True(t, ok)
	assert.Equal(t, "DONALDSN", v)

	_, ok = vocabularyBrand(in)
	assert.False(t, ok)

	v, ok = fuzzyBrand(in)
	assert.True(t, ok)
	assert.Equal(t, "DONALDSON", v)
}

func TestManufacturerCode_SkipsKnownBrand(t *testing.T) {
	in := NewInput("estoque do w712 e do psl55", Vocabulary{Brands: []string{"W712"}})
	_, ok := manufacturerCode(in)
	assert.False(t, ok)

	in = NewInput("estoque do psl-550", Vocabulary{})
	v, ok := manufacturerCode(in)
	assert.True(t, ok)
	assert.Equal(t, "PSL-550", v)
}
