package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/ingredient-search/internal/core/domain"
	"github.com/kirillkom/ingredient-search/internal/core/ports"
)

type column int

const (
	colID column = iota
	colCode
	colName
	colINCI
	colCategory
	colFunction
	colBenefits
	colSupplier
	colCost
	colCurrency
	colDescription
	colAvailable
)

var headerAliases = buildAliases(map[column][]string{
	colID:          {"id", "record_id"},
	colCode:        {"code", "rm code", "canonical_code", "รหัส"},
	colName:        {"name", "display_name", "trade name", "ชื่อ"},
	colINCI:        {"inci", "inci name", "alt_name"},
	colCategory:    {"category", "หมวดหมู่"},
	colFunction:    {"function", "functions", "function_tags"},
	colBenefits:    {"benefits", "benefit", "ประโยชน์"},
	colSupplier:    {"supplier", "ผู้จำหน่าย"},
	colCost:        {"cost", "price", "ราคา"},
	colCurrency:    {"currency"},
	colDescription: {"description", "รายละเอียด"},
	colAvailable:   {"available", "in stock", "stock"},
})

func buildAliases(byColumn map[column][]string) map[string]column {
	out := make(map[string]column)
	for col, names := range byColumn {
		for _, name := range names {
			out[name] = col
		}
	}
	return out
}

// recordNamespace seeds ids for rows that carry neither id nor code.
var recordNamespace = uuid.MustParse("6f1c2a4e-8d3b-4f7a-9e21-3c5d7b9a0e14")

// RowError is a spreadsheet row that could not become a record. Row is 1-based.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

type Report struct {
	Imported int
	Skipped  int
	Errors   []RowError
}

type Options struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet           string
	DefaultCurrency string
}

// Read streams records from the workbook to visit. Blank rows are ignored;
// rows that fail validation are reported and skipped. An error from visit
// aborts the read.
func Read(r io.Reader, opts Options, visit func(row int, record domain.CatalogRecord) error) (Report, error) {
	var report Report

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer func() { _ = f.Close() }()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return report, domain.WrapError(domain.ErrInvalidInput, "open workbook", errors.New("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return report, domain.WrapError(domain.ErrInvalidInput, "read sheet", err)
	}
	defer func() { _ = rows.Close() }()

	var header map[column]int
	rowNum := 0
	for rows.Next() {
		rowNum++
		cells, err := rows.Columns()
		if err != nil {
			return report, fmt.Errorf("read row %d: %w", rowNum, err)
		}
		if header == nil {
			header, err = parseHeader(cells)
			if err != nil {
				return report, domain.WrapError(domain.ErrInvalidInput, "read header", err)
			}
			continue
		}
		if isBlank(cells) {
			continue
		}

		record, err := buildRecord(header, cells, opts.DefaultCurrency)
		if err == nil {
			err = record.Validate()
		}
		if err != nil {
			report.Skipped++
			report.Errors = append(report.Errors, RowError{Row: rowNum, Err: err})
			continue
		}
		if err := visit(rowNum, record); err != nil {
			return report, err
		}
		report.Imported++
	}
	if err := rows.Error(); err != nil {
		return report, fmt.Errorf("iterate rows: %w", err)
	}
	if header == nil {
		return report, domain.WrapError(domain.ErrInvalidInput, "read header", errors.New("sheet is empty"))
	}
	return report, nil
}

// Import upserts every valid row. Write failures are reported per row.
func Import(ctx context.Context, r io.Reader, writer ports.CatalogWriter, opts Options) (Report, []domain.CatalogRecord, error) {
	written := make([]domain.CatalogRecord, 0)
	var writeErrors []RowError
	report, err := Read(r, opts, func(row int, record domain.CatalogRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.UpsertRecord(ctx, record); err != nil {
			writeErrors = append(writeErrors, RowError{Row: row, Err: err})
			return nil
		}
		written = append(written, record)
		return nil
	})
	report.Imported -= len(writeErrors)
	report.Skipped += len(writeErrors)
	report.Errors = append(report.Errors, writeErrors...)
	return report, written, err
}

func parseHeader(cells []string) (map[column]int, error) {
	header := make(map[column]int, len(cells))
	for i, cell := range cells {
		key := strings.ToLower(strings.Join(strings.Fields(cell), " "))
		col, ok := headerAliases[key]
		if !ok {
			continue
		}
		if _, dup := header[col]; !dup {
			header[col] = i
		}
	}
	_, hasCode := header[colCode]
	_, hasName := header[colName]
	if !hasCode && !hasName {
		return nil, errors.New("header needs a code or name column")
	}
	return header, nil
}

func buildRecord(header map[column]int, cells []string, defaultCurrency string) (domain.CatalogRecord, error) {
	get := func(c column) string {
		i, ok := header[c]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	record := domain.CatalogRecord{
		ID:            get(colID),
		CanonicalCode: strings.ToUpper(get(colCode)),
		DisplayName:   get(colName),
		AltName:       get(colINCI),
		Category:      get(colCategory),
		FunctionTags:  splitList(get(colFunction)),
		Benefits:      splitList(get(colBenefits)),
		Supplier:      get(colSupplier),
		Currency:      get(colCurrency),
		Description:   get(colDescription),
		Available:     parseAvailable(get(colAvailable)),
	}
	if record.Currency == "" && get(colCost) != "" {
		record.Currency = defaultCurrency
	}

	cost, err := parseCost(get(colCost))
	if err != nil {
		return record, domain.WrapError(domain.ErrMalformedRecord, "parse cost", err)
	}
	record.Cost = cost

	if record.ID == "" {
		switch {
		case record.CanonicalCode != "":
			record.ID = record.CanonicalCode
		case record.DisplayName != "" || record.AltName != "":
			record.ID = uuid.NewSHA1(recordNamespace, []byte(strings.ToLower(record.DisplayName+"|"+record.AltName))).String()
		}
	}
	return record, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '\n' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseCost(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	cleaned := strings.NewReplacer(",", "", "฿", "", "THB", "", "thb", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cost %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("cost %q is negative", raw)
	}
	return v, nil
}

func parseAvailable(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "y", "yes", "true", "available", "in stock", "✓", "มี", "พร้อม":
		return true
	default:
		return false
	}
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
