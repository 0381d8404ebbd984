package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

// utf16be mirrors how fpdf writes text shown in an embedded UTF-8 font.
func utf16be(s string) []byte {
	var out []byte
	for _, r := range s {
		out = append(out, byte(r>>8), byte(r))
	}
	return out
}

func TestShoppingListPDFKeepsCyrillic(t *testing.T) {
	pdf := newShoppingListPDF([]types.ShoppingListItem{
		{Name: "Молоко", MeasurementUnit: "мл", Amount: 500},
		{Name: "Salt", MeasurementUnit: "g", Amount: 5},
	})
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	out := buf.Bytes()

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "DejaVu")
	assert.True(t, bytes.Contains(out, utf16be("Молоко")), "ingredient name missing from page stream")
	assert.True(t, bytes.Contains(out, utf16be("мл")), "unit missing from page stream")
	assert.True(t, bytes.Contains(out, utf16be("Salt")))
	assert.NotContains(t, string(out), "(......)")
}
