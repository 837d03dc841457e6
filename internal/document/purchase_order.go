package document

import (
	"bytes"
	"fmt"

	"backend/internal/model"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

func intDecimal(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// RenderPurchaseOrder produces the purchase-order PDF for a finalized
// request and its selected quote.
func RenderPurchaseOrder(req *model.PurchaseRequest, quote *model.Quote) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetMargins(10, 10, 10)

	pdf.SetFont("Arial", "B", 18)
	pdf.Cell(190, 10, "PURCHASE ORDER")
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, fmt.Sprintf("PO No: %s", req.PONumber))
	pdf.Cell(95, 6, fmt.Sprintf("Date: %s", req.UpdatedAt.Format("02-Jan-2006")))
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, fmt.Sprintf("Request: %s", req.Title))
	pdf.Ln(6)
	if req.User != nil {
		pdf.Cell(95, 6, fmt.Sprintf("Requested by: %s", req.User.Username))
		pdf.Ln(6)
	}
	pdf.Cell(95, 6, fmt.Sprintf("Supplier: %s", quote.SupplierName))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(100, 8, "Item", "1", 0, "L", true, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 8, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(35, 8, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	lines := quote.Items
	if len(lines) == 0 {
		// Quotes without detailed lines fall back to a single summary row.
		pdf.CellFormat(100, 8, quote.SupplierName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, "1", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, quote.Amount.StringFixed(2), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, quote.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	for _, item := range lines {
		lineTotal := item.UnitPrice.Mul(intDecimal(item.Quantity))
		pdf.CellFormat(100, 8, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 8, item.UnitPrice.StringFixed(2), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 8, lineTotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(155, 8, "Total (EUR)")
	pdf.CellFormat(35, 8, quote.Amount.StringFixed(2), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render purchase order: %w", err)
	}
	return buf.Bytes(), nil
}
