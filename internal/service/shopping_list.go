package service

import (
	_ "embed"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/pageza/foodgram/backend/internal/types"
)

const shoppingListTitle = "Shopping list"

// RenderShoppingListText writes one numbered line per item.
func RenderShoppingListText(w io.Writer, items []types.ShoppingListItem) error {
	var b strings.Builder
	b.WriteString(shoppingListTitle + "\n\n")
	if len(items) == 0 {
		b.WriteString("Your shopping cart is empty.\n")
	}
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s) - %d\n", i+1, item.Name, item.MeasurementUnit, item.Amount)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var (
	//go:embed fonts/DejaVuSans.ttf
	dejaVuRegular []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	dejaVuBold []byte
)

const pdfFont = "DejaVu"

// RenderShoppingListPDF writes the list as a single-column A4 table. The
// embedded DejaVu face covers Latin and Cyrillic ingredient names.
func RenderShoppingListPDF(w io.Writer, items []types.ShoppingListItem) error {
	pdf := newShoppingListPDF(items)
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render shopping list: %w", err)
	}
	return pdf.Output(w)
}

func newShoppingListPDF(items []types.ShoppingListItem) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(shoppingListTitle, true)
	pdf.SetCreator("foodgram", true)
	pdf.AddUTF8FontFromBytes(pdfFont, "", dejaVuRegular)
	pdf.AddUTF8FontFromBytes(pdfFont, "B", dejaVuBold)

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 18)
	pdf.CellFormat(0, 12, shoppingListTitle, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(items) == 0 {
		pdf.SetFont(pdfFont, "", 12)
		pdf.CellFormat(0, 8, "Your shopping cart is empty.", "", 1, "L", false, 0, "")
		return pdf
	}

	pdf.SetFont(pdfFont, "B", 12)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(12, 8, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(110, 8, "Ingredient", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Amount", "1", 0, "R", true, 0, "")
	pdf.CellFormat(38, 8, "Unit", "1", 1, "L", true, 0, "")

	pdf.SetFont(pdfFont, "", 12)
	for i, item := range items {
		pdf.CellFormat(12, 8, fmt.Sprint(i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(110, 8, item.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprint(item.Amount), "1", 0, "R", false, 0, "")
		pdf.CellFormat(38, 8, item.MeasurementUnit, "1", 1, "L", false, 0, "")
	}
	return pdf
}
