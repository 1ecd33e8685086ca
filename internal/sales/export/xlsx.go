package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bitshop/salesdash/internal/sales"
)

// SheetName is the worksheet holding the exported records.
const SheetName = "Sheet1"

const dateNumFmt = "dd/mm/yyyy"

// WriteXLSX serialises the records as a workbook with one header row in the
// dataset's column order. Dates are written as Excel dates and amounts as raw
// numbers; every other column is copied from the source cells. Excel stores
// numbers as float64, so amounts beyond 15 significant digits come back
// rounded to the nearest double.
func WriteXLSX(w io.Writer, columns []string, roles []sales.Role, records []sales.Record) error {
	if len(columns) != len(roles) {
		return fmt.Errorf("export: %d columns but %d roles", len(columns), len(roles))
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	numFmt := dateNumFmt
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("export: date style: %w", err)
	}
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export: stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, name := range columns {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for n, record := range records {
		row := make([]any, len(roles))
		for i, role := range roles {
			switch role {
			case sales.RoleDate:
				row[i] = excelize.Cell{StyleID: dateStyle, Value: record.Date}
			case sales.RoleAmount:
				row[i] = record.Amount.InexactFloat64()
			case sales.RoleProduct:
				row[i] = record.Product
			case sales.RoleSeller:
				row[i] = record.Seller
			case sales.RoleRegion:
				row[i] = record.Region
			default:
				if i < len(record.Fields) {
					row[i] = record.Fields[i]
				} else {
					row[i] = ""
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export: row %d: %w", n+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return f.Write(w)
}

// ReadXLSX parses a workbook produced by WriteXLSX back into records. Column
// roles come from the header names through the column map.
func ReadXLSX(r io.Reader, columns sales.ColumnMap) ([]string, []sales.Record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("export: open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("export: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("export: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("export: workbook is empty")
	}
	header := rows[0]
	roles := make([]sales.Role, len(header))
	for i, name := range header {
		roles[i] = columns.RoleOf(strings.TrimSpace(name))
	}

	records := make([]sales.Record, 0, len(rows)-1)
	for n, row := range rows[1:] {
		fields := make([]string, len(header))
		copy(fields, row)
		record := sales.Record{Fields: fields}
		for i, role := range roles {
			value := strings.TrimSpace(fields[i])
			switch role {
			case sales.RoleDate:
				record.Date, err = parseExcelDate(value)
			case sales.RoleAmount:
				record.Amount, err = decimal.NewFromString(value)
			case sales.RoleProduct:
				record.Product = value
			case sales.RoleSeller:
				record.Seller = value
			case sales.RoleRegion:
				record.Region = value
			}
			if err != nil {
				return nil, nil, fmt.Errorf("export: row %d column %q: %w", n+2, header[i], err)
			}
		}
		records = append(records, record)
	}
	return header, records, nil
}

func parseExcelDate(value string) (t time.Time, err error) {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return sales.ParseDate(value)
	}
	t, err = excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return t, err
	}
	return sales.Civil(t), nil
}
