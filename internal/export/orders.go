// Package export renders store orders as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/01moynul/a2z-storefront/internal/models"
)

const ordersSheet = "Orders"

// OrdersHeader is the first row of the orders workbook.
var OrdersHeader = []string{
	"Order ID", "Date", "Customer", "Email", "Phone", "Items",
	"Payment", "Status", "Subtotal", "Shipping", "Total",
}

var ordersColWidths = []float64{38, 20, 22, 28, 16, 40, 18, 12, 12, 12, 12}

// OrdersXLSX builds a workbook with one row per order.
func OrdersXLSX(orders []models.Order) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(OrdersHeader))
	for i, h := range OrdersHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(OrdersHeader), 1)
	if err := f.SetCellStyle(ordersSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}
	for i, w := range ordersColWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(ordersSheet, col, col, w); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i := range orders {
		o := &orders[i]
		s := o.Summarize()
		row := []any{
			o.ID,
			o.CreatedAt.Format("2006-01-02 15:04"),
			s.CustomerName,
			s.CustomerEmail,
			s.CustomerPhone,
			s.Items,
			s.PaymentMethod,
			o.Status,
			o.Subtotal.InexactFloat64(),
			o.ShippingFee.InexactFloat64(),
			o.Total.InexactFloat64(),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(ordersSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
