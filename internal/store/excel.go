// Package store persists invoices to an Excel workbook with SalesOrderHeader
// and SalesOrderDetail sheets. The workbook is the system of record; rows are
// append-only except through UpdateInvoice.
package store

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"invoice-parser/internal/common"
	"invoice-parser/internal/entity"
)

const (
	headerSheet = "SalesOrderHeader"
	detailSheet = "SalesOrderDetail"

	timestampLayout = "2006-01-02 15:04:05"
)

var headerColumns = []string{
	"OrderID", "InvoiceNumber", "OrderDate", "InvoiceDate", "DueDate",
	"CustomerID", "CustomerName", "VendorName", "BillingAddress",
	"ShippingAddress", "SubTotal", "Tax", "TotalAmount", "Currency",
	"Status", "CreatedAt", "UpdatedAt",
}

var detailColumns = []string{
	"OrderID", "LineNumber", "ItemDescription", "Quantity", "UnitPrice",
	"LineTotal", "CreatedAt",
}

// ExcelStore reads and writes the invoice workbook. All operations take the
// store lock; the workbook is reopened per operation so external edits
// between calls are picked up.
type ExcelStore struct {
	path   string
	mu     sync.Mutex
	logger *slog.Logger
	now    func() time.Time
}

// NewExcelStore opens the store at path, creating an empty workbook with both
// sheets when none exists.
func NewExcelStore(path string, logger *slog.Logger) (*ExcelStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ExcelStore{path: path, logger: logger, now: time.Now}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.createWorkbook(); err != nil {
			return nil, fmt.Errorf("create workbook: %w", err)
		}
		logger.Info("store.workbook.created", "path", path)
	}
	return s, nil
}

func (s *ExcelStore) createWorkbook() error {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", headerSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}
	if err := writeRow(f, headerSheet, 1, toAnySlice(headerColumns)); err != nil {
		return err
	}
	if err := writeRow(f, detailSheet, 1, toAnySlice(detailColumns)); err != nil {
		return err
	}
	return f.SaveAs(s.path)
}

// SaveInvoice appends the record as a new order and returns the assigned
// OrderID (max existing + 1).
func (s *ExcelStore) SaveInvoice(rec *entity.InvoiceRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return 0, fmt.Errorf("open workbook: %w", err)
	}
	defer closeQuietly(f, s.logger)

	headers, err := f.GetRows(headerSheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", headerSheet, err)
	}
	orderID := nextOrderID(headers)
	now := s.now().Format(timestampLayout)

	row := headerRowValues(orderID, rec, "Pending", now, now)
	if err := writeRow(f, headerSheet, len(headers)+1, row); err != nil {
		return 0, fmt.Errorf("append header: %w", err)
	}

	details, err := f.GetRows(detailSheet)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", detailSheet, err)
	}
	next := len(details) + 1
	for i, item := range rec.LineItems {
		if err := writeRow(f, detailSheet, next+i, detailRowValues(orderID, i+1, item, now)); err != nil {
			return 0, fmt.Errorf("append detail: %w", err)
		}
	}

	if err := f.Save(); err != nil {
		return 0, fmt.Errorf("save workbook: %w", err)
	}
	s.logger.Info("store.save.ok", "order_id", orderID, "line_items", len(rec.LineItems))
	return orderID, nil
}

// UpdateInvoice overwrites the header row for orderID and replaces its detail
// rows. Returns an error when the order does not exist.
func (s *ExcelStore) UpdateInvoice(orderID int, rec *entity.InvoiceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer closeQuietly(f, s.logger)

	headers, err := f.GetRows(headerSheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", headerSheet, err)
	}
	rowIdx := -1
	createdAt := ""
	for i, row := range headers {
		if i == 0 {
			continue
		}
		if cellInt(row, 0) == orderID {
			rowIdx = i + 1 // 1-based sheet row
			createdAt = cell(row, 15)
			break
		}
	}
	if rowIdx < 0 {
		return fmt.Errorf("OrderID %d: %w", orderID, common.ErrNotFound)
	}

	now := s.now().Format(timestampLayout)
	if err := writeRow(f, headerSheet, rowIdx, headerRowValues(orderID, rec, "Pending", createdAt, now)); err != nil {
		return fmt.Errorf("update header: %w", err)
	}

	// Rebuild the detail sheet without the old rows for this order.
	details, err := f.GetRows(detailSheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", detailSheet, err)
	}
	kept := make([][]any, 0, len(details))
	for i, row := range details {
		if i == 0 || cellInt(row, 0) == orderID {
			continue
		}
		kept = append(kept, toAnySlice(row))
	}
	for i, item := range rec.LineItems {
		kept = append(kept, detailRowValues(orderID, i+1, item, now))
	}
	if err := f.DeleteSheet(detailSheet); err != nil {
		return fmt.Errorf("reset %s: %w", detailSheet, err)
	}
	if _, err := f.NewSheet(detailSheet); err != nil {
		return fmt.Errorf("recreate %s: %w", detailSheet, err)
	}
	if err := writeRow(f, detailSheet, 1, toAnySlice(detailColumns)); err != nil {
		return err
	}
	for i, row := range kept {
		if err := writeRow(f, detailSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	s.logger.Info("store.update.ok", "order_id", orderID)
	return nil
}

// ListInvoices returns all saved headers and details.
func (s *ExcelStore) ListInvoices() ([]entity.InvoiceHeader, []entity.InvoiceDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll()
}

// GetInvoice returns the header and details for one order.
func (s *ExcelStore) GetInvoice(orderID int) (*entity.InvoiceHeader, []entity.InvoiceDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	headers, details, err := s.readAll()
	if err != nil {
		return nil, nil, err
	}
	for i := range headers {
		if headers[i].OrderID == orderID {
			matched := make([]entity.InvoiceDetail, 0, 4)
			for _, d := range details {
				if d.OrderID == orderID {
					matched = append(matched, d)
				}
			}
			return &headers[i], matched, nil
		}
	}
	return nil, nil, fmt.Errorf("OrderID %d: %w", orderID, common.ErrNotFound)
}

func (s *ExcelStore) readAll() ([]entity.InvoiceHeader, []entity.InvoiceDetail, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer closeQuietly(f, s.logger)

	headerRows, err := f.GetRows(headerSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", headerSheet, err)
	}
	headers := make([]entity.InvoiceHeader, 0, len(headerRows))
	for i, row := range headerRows {
		if i == 0 {
			continue
		}
		headers = append(headers, entity.InvoiceHeader{
			OrderID:         cellInt(row, 0),
			InvoiceNumber:   cell(row, 1),
			OrderDate:       cell(row, 2),
			InvoiceDate:     cell(row, 3),
			DueDate:         cell(row, 4),
			CustomerID:      cell(row, 5),
			CustomerName:    cell(row, 6),
			VendorName:      cell(row, 7),
			BillingAddress:  cell(row, 8),
			ShippingAddress: cell(row, 9),
			SubTotal:        cellFloat(row, 10),
			Tax:             cellFloat(row, 11),
			TotalAmount:     cellFloat(row, 12),
			Currency:        cell(row, 13),
			Status:          cell(row, 14),
			CreatedAt:       cell(row, 15),
			UpdatedAt:       cell(row, 16),
		})
	}

	detailRows, err := f.GetRows(detailSheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", detailSheet, err)
	}
	details := make([]entity.InvoiceDetail, 0, len(detailRows))
	for i, row := range detailRows {
		if i == 0 {
			continue
		}
		details = append(details, entity.InvoiceDetail{
			OrderID:         cellInt(row, 0),
			LineNumber:      cellInt(row, 1),
			ItemDescription: cell(row, 2),
			Quantity:        cellFloat(row, 3),
			UnitPrice:       cellFloat(row, 4),
			LineTotal:       cellFloat(row, 5),
			CreatedAt:       cell(row, 6),
		})
	}
	return headers, details, nil
}

func nextOrderID(headerRows [][]string) int {
	maxID := 0
	for i, row := range headerRows {
		if i == 0 {
			continue
		}
		if id := cellInt(row, 0); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func headerRowValues(orderID int, rec *entity.InvoiceRecord, status, createdAt, updatedAt string) []any {
	return []any{
		orderID,
		strVal(rec.InvoiceNumber),
		strVal(rec.InvoiceDate), // OrderDate mirrors the invoice date
		strVal(rec.InvoiceDate),
		strVal(rec.DueDate),
		"", // CustomerID: not extracted
		strVal(rec.CustomerName),
		strVal(rec.VendorName),
		strVal(rec.BillingAddress),
		strVal(rec.ShippingAddress),
		numVal(rec.Subtotal),
		numVal(rec.Tax),
		numVal(rec.TotalAmount),
		strVal(rec.Currency),
		status,
		createdAt,
		updatedAt,
	}
}

func detailRowValues(orderID, line int, item entity.LineItem, createdAt string) []any {
	return []any{
		orderID,
		line,
		strVal(item.Description),
		numVal(item.Quantity),
		numVal(item.UnitPrice),
		numVal(item.TotalPrice),
		createdAt,
	}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cellName, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cellName, &values)
}

func closeQuietly(f *excelize.File, logger *slog.Logger) {
	if err := f.Close(); err != nil {
		logger.Warn("store.workbook.close_error", "error", err)
	}
}

func toAnySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func numVal(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func cellInt(row []string, i int) int {
	v, err := strconv.Atoi(cell(row, i))
	if err != nil {
		return 0
	}
	return v
}

func cellFloat(row []string, i int) float64 {
	v, err := strconv.ParseFloat(cell(row, i), 64)
	if err != nil {
		return 0
	}
	return v
}
