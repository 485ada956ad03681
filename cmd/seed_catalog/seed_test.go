package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/adapters/out/memory"
	productdom "storefront/internal/domain/product"
)

const sampleSeed = `
admins: [boss, "  "]
products:
  - id: rose-oil
    name: {primary: "زيت الورد", en: Rose Oil}
    desc: {primary: "  زيت  "}
    price: 120
    stock: 10
    gallery: ["https://img/a.jpg", "  "]
    beforeUrl: https://img/before.jpg
    afterUrl: https://img/after.jpg
  - id: gift-card
    name: {primary: "بطاقة"}
    price: 50
`

func TestParseSeed(t *testing.T) {
	f, err := parseSeed(strings.NewReader(sampleSeed))
	require.NoError(t, err)
	require.Len(t, f.Products, 2)

	rose := f.Products[0].toProduct()
	assert.Equal(t, "Rose Oil", rose.Name.En)
	assert.Equal(t, "زيت", rose.Desc.Primary)
	assert.Equal(t, []string{"https://img/a.jpg"}, rose.Gallery)
	require.NotNil(t, rose.Stock)
	assert.EqualValues(t, 10, *rose.Stock)
	require.NotNil(t, rose.BeforeAfter)
	assert.Equal(t, "https://img/after.jpg", rose.BeforeAfter.AfterURL)

	gift := f.Products[1].toProduct()
	assert.Nil(t, gift.Stock)
	assert.Nil(t, gift.BeforeAfter)
}

func TestParseSeed_Rejects(t *testing.T) {
	tests := map[string]string{
		"missing id":    "products:\n  - name: {primary: x}\n    price: 1\n",
		"duplicate id":  "products:\n  - id: a\n    name: {primary: x}\n  - id: a\n    name: {primary: y}\n",
		"negative":      "products:\n  - id: a\n    name: {primary: x}\n    price: -1\n",
		"no name":       "products:\n  - id: a\n    price: 1\n",
		"unknown field": "products:\n  - id: a\n    name: {primary: x}\n    colour: red\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseSeed(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplySeed(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	f, err := parseSeed(strings.NewReader(sampleSeed))
	require.NoError(t, err)

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	np, na, err := applySeed(ctx, f, store, store, first)
	require.NoError(t, err)
	assert.Equal(t, 2, np)
	assert.Equal(t, 1, na)

	isAdmin, err := store.IsAdmin(ctx, "boss")
	require.NoError(t, err)
	assert.True(t, isAdmin)

	// re-seeding keeps createdAt and refreshes updatedAt
	later := first.Add(24 * time.Hour)
	_, _, err = applySeed(ctx, f, store, store, later)
	require.NoError(t, err)

	p, err := store.GetByID(ctx, "rose-oil")
	require.NoError(t, err)
	assert.Equal(t, first, p.CreatedAt)
	assert.Equal(t, later, p.UpdatedAt)

	ps, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
	assert.Equal(t, "gift-card", ps[0].ID)
	assert.Equal(t, productdom.Localized{Primary: "بطاقة"}, ps[0].Name)
}
