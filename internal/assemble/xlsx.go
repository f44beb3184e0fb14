package assemble

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kdocs/docuflow/internal/tables"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	sheetNameBads = `[]:*?/\`
)

// RegistryWorkbook exports a prepared registry: a summary sheet of the
// document fields, then one sheet per table.
func RegistryWorkbook(reg *tables.Registry) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	summary := [][2]string{
		{"documentType", reg.DocumentType},
		{"typeOfRegistration", reg.TypeOfRegistration},
		{"serialNumber", reg.SerialNumber},
		{"address", reg.Address},
		{"competentRegistryOffice", reg.CompetentRegistryOffice},
		{"dateOfIssue", reg.DateOfIssue},
		{"remarks", strings.Join(reg.Remarks, "\n")},
	}
	for i, kv := range summary {
		if err := setRow(f, summarySheet, i+1, []string{kv[0], kv[1]}); err != nil {
			return nil, err
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A"+strconv.Itoa(len(summary)), bold); err != nil {
		return nil, fmt.Errorf("failed to style summary: %w", err)
	}

	used := map[string]bool{strings.ToLower(summarySheet): true}
	for i, t := range reg.Tables {
		name := uniqueSheetName(sheetName(t.Header, i+1), used)
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeTableSheet(f, name, t, bold, wrap); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func writeTableSheet(f *excelize.File, sheet string, t tables.Table, bold, wrap int) error {
	cols := max(1, t.Width())
	row := 1
	if h := strings.TrimSpace(t.Header); h != "" {
		if err := setRow(f, sheet, row, []string{h}); err != nil {
			return err
		}
		end, _ := excelize.CoordinatesToCellName(cols, row)
		if cols > 1 {
			if err := f.MergeCell(sheet, "A1", end); err != nil {
				return fmt.Errorf("failed to merge title on %s: %w", sheet, err)
			}
		}
		if err := f.SetCellStyle(sheet, "A1", end, bold); err != nil {
			return fmt.Errorf("failed to style title on %s: %w", sheet, err)
		}
		row++
	}

	header := make([]string, cols)
	copy(header, t.Columns)
	if err := setRow(f, sheet, row, header); err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(cols, row)
	if err := f.SetCellStyle(sheet, start, end, bold); err != nil {
		return fmt.Errorf("failed to style header on %s: %w", sheet, err)
	}
	row++

	for _, r := range t.Rows {
		cells := make([]string, cols)
		for c := range cells {
			cells[c] = r.Get(c)
		}
		if err := setRow(f, sheet, row, cells); err != nil {
			return err
		}
		row++
	}
	if row > 1 {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(cols, row-1)
		if err := f.SetCellStyle(sheet, start, end, wrap); err != nil {
			return fmt.Errorf("failed to style body on %s: %w", sheet, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(cols)
	if err := f.SetColWidth(sheet, "A", lastCol, 24); err != nil {
		return fmt.Errorf("failed to size columns on %s: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	for c, v := range values {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// sheetName derives a valid sheet name from a table header.
func sheetName(header string, n int) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(sheetNameBads, r) {
			return -1
		}
		return r
	}, tables.NormalizeHeader(header))
	name = strings.Trim(strings.TrimSpace(name), "'")
	if name == "" {
		name = "Table " + strconv.Itoa(n)
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := " (" + strconv.Itoa(i) + ")"
		r := []rune(name)
		if len(r)+len([]rune(suffix)) > maxSheetName {
			r = r[:maxSheetName-len([]rune(suffix))]
		}
		candidate = string(r) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
