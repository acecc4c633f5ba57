package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProduct() *Product {
	return &Product{
		ID:       uuid.New(),
		Name:     "Soda Blaster Pro",
		Category: "Equipment",
		Variants: VariantList{
			{
				ID:   uuid.New(),
				Name: "Tank Size",
				Options: []Option{
					{ID: uuid.New(), Name: "20L", Stock: 3, SKU: "SB-20"},
					{ID: uuid.New(), Name: "40L", Stock: 14, SKU: "SB-40"},
				},
			},
			{
				ID:      uuid.New(),
				Name:    "Nozzle",
				Options: []Option{},
			},
		},
	}
}

func TestProduct_Variant(t *testing.T) {
	p := sampleProduct()

	variant, err := p.Variant(p.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Tank Size", variant.Name)

	_, err = p.Variant(uuid.New())
	assert.ErrorIs(t, err, ErrVariantNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProduct_Variant_ReturnsMutablePointer(t *testing.T) {
	p := sampleProduct()

	variant, err := p.Variant(p.Variants[0].ID)
	require.NoError(t, err)

	variant.Name = "Hopper Size"
	assert.Equal(t, "Hopper Size", p.Variants[0].Name)
}

func TestProduct_RemoveVariant_CascadesOptions(t *testing.T) {
	p := sampleProduct()
	variantID := p.Variants[0].ID

	err := p.RemoveVariant(variantID)
	require.NoError(t, err)

	assert.Len(t, p.Variants, 1)
	_, err = p.Variant(variantID)
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestProduct_RemoveVariant_NotFound(t *testing.T) {
	p := sampleProduct()

	err := p.RemoveVariant(uuid.New())
	assert.ErrorIs(t, err, ErrVariantNotFound)
	assert.Len(t, p.Variants, 2)
}

func TestVariant_Option(t *testing.T) {
	p := sampleProduct()
	variant := &p.Variants[0]

	option, err := variant.Option(variant.Options[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "40L", option.Name)

	_, err = variant.Option(uuid.New())
	assert.ErrorIs(t, err, ErrOptionNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestVariant_RemoveOption(t *testing.T) {
	p := sampleProduct()
	variant := &p.Variants[0]
	optionID := variant.Options[0].ID

	err := variant.RemoveOption(optionID)
	require.NoError(t, err)

	assert.Len(t, variant.Options, 1)
	assert.Equal(t, "40L", variant.Options[0].Name)

	err = variant.RemoveOption(optionID)
	assert.ErrorIs(t, err, ErrOptionNotFound)
}

func TestVariantList_ValueAndScan(t *testing.T) {
	original := sampleProduct().Variants

	value, err := original.Value()
	require.NoError(t, err)

	var scanned VariantList
	require.NoError(t, scanned.Scan(value))

	assert.Equal(t, original, scanned)
}

func TestVariantList_Value_NilEncodesAsEmptyArray(t *testing.T) {
	var vl VariantList

	value, err := vl.Value()
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(value.([]byte)))
}

func TestVariantList_Scan_Null(t *testing.T) {
	var vl VariantList

	require.NoError(t, vl.Scan(nil))
	assert.Empty(t, vl)
}

func TestVariantList_Scan_InvalidType(t *testing.T) {
	var vl VariantList

	err := vl.Scan(42)
	assert.Error(t, err)
}

func TestProduct_JSONOmitsDeletedAt(t *testing.T) {
	p := sampleProduct()

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "deleted_at")
}

func TestProduct_StockSummary(t *testing.T) {
	p := sampleProduct()

	summary := p.StockSummary(5)

	assert.Equal(t, p.ID, summary.ProductID)
	assert.Equal(t, 17, summary.TotalStock)
	assert.False(t, summary.OutOfStock)
	assert.Equal(t, []string{"SB-20"}, summary.LowStockSKUs)
	assert.False(t, summary.ComputedAt.IsZero())
}

func TestProduct_StockSummary_NoOptionsIsOutOfStock(t *testing.T) {
	p := &Product{ID: uuid.New(), Name: "Placeholder"}

	summary := p.StockSummary(5)

	assert.True(t, summary.OutOfStock)
	assert.Equal(t, 0, summary.TotalStock)
	assert.Empty(t, summary.LowStockSKUs)
}
