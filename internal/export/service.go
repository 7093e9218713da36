package export

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/core"
	"github.com/joseph-ayodele/invoice-extractor/internal/core/fields"
)

const (
	DataSheet = "Invoice Data"
	LogSheet  = "Processing Log"

	headerFill = "366092"
	stripeFill = "F2F2F2"
	maxWidth   = 50
)

var logHeaders = []string{"File", "Status", "Strategy", "Characters", "Message"}

// DefaultFileName is extracted_invoice_data_YYYYMMDD_HHMMSS.xlsx for t.
func DefaultFileName(t time.Time) string {
	return "extracted_invoice_data_" + t.Format("20060102_150405") + ".xlsx"
}

// Service produces XLSX bytes for a batch.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

type styles struct {
	header, even, odd int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	cellAlign := &excelize.Alignment{Vertical: "top", WrapText: true}

	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return s, err
	}
	if s.even, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{stripeFill}},
		Alignment: cellAlign,
	}); err != nil {
		return s, err
	}
	if s.odd, err = f.NewStyle(&excelize.Style{Border: border, Alignment: cellAlign}); err != nil {
		return s, err
	}
	return s, nil
}

// WriteXLSX renders records into the data sheet and the processing log into a second sheet.
func (s *Service) WriteXLSX(records []fields.InvoiceRecord, log []core.DocumentResult) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", DataSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LogSheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("styles: %w", err)
	}

	dataRows := make([][]any, 0, len(records))
	widthRows := make([][]string, 0, len(records))
	for _, r := range records {
		dataRows = append(dataRows, r.Cells())
		widthRows = append(widthRows, r.Row())
	}
	if err := writeTable(f, DataSheet, constants.Columns(), dataRows, widthRows, st); err != nil {
		return nil, err
	}

	logRows := make([][]any, 0, len(log))
	logWidth := make([][]string, 0, len(log))
	for _, e := range log {
		row := []string{e.Document, e.Status.Label(), string(e.Strategy), strconv.Itoa(e.TextChars), e.Message()}
		logWidth = append(logWidth, row)
		logRows = append(logRows, []any{row[0], row[1], row[2], e.TextChars, row[4]})
	}
	if err := writeTable(f, LogSheet, logHeaders, logRows, logWidth, st); err != nil {
		return nil, err
	}

	if idx, err := f.GetSheetIndex(DataSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(records),
		"log_rows", len(log),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteFile writes the workbook to path.
func (s *Service) WriteFile(path string, records []fields.InvoiceRecord, log []core.DocumentResult) error {
	b, err := s.WriteXLSX(records, log)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]any, widthRows [][]string, st styles) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}

	for c, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, st.header); err != nil {
		return err
	}

	for r, row := range rows {
		excelRow := r + 2
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, excelRow)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		style := st.odd
		if excelRow%2 == 0 {
			style = st.even
		}
		first, _ := excelize.CoordinatesToCellName(1, excelRow)
		end, _ := excelize.CoordinatesToCellName(len(headers), excelRow)
		if err := f.SetCellStyle(sheet, first, end, style); err != nil {
			return err
		}
		for c, s := range widthRows[r] {
			if n := utf8.RuneCountInString(s); c < len(widths) && n > widths[c] {
				widths[c] = n
			}
		}
	}

	for c, w := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		if err := f.SetColWidth(sheet, col, col, float64(min(w+2, maxWidth))); err != nil {
			return err
		}
	}
	return nil
}
