package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"santiye/internal/pricematrix"
)

// MatrixSheet is the worksheet name of the price comparison export.
const MatrixSheet = "Fiyat Karşılaştırma"

// WriteMatrixXLSX renders the matrix as a workbook with one row per matrix row
// and one column per firm. Cells holding a row's lowest price are highlighted.
func WriteMatrixXLSX(w io.Writer, m pricematrix.Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", MatrixSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newMatrixStyles(f)
	if err != nil {
		return err
	}

	withDate := false
	for _, r := range m.Rows {
		if r.Date != nil {
			withDate = true
			break
		}
	}

	header := []any{"Ürün", "Detay"}
	if withDate {
		header = append(header, "Tarih")
	}
	firstFirmCol := len(header) + 1
	for _, firm := range m.Firms {
		header = append(header, firm)
	}
	header = append(header, "En Düşük")

	if err := f.SetSheetRow(MatrixSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := f.SetCellStyle(MatrixSheet, "A1", lastHeader, styles.header); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, r := range m.Rows {
		rowNum := i + 2
		values := []any{r.Product, r.Detail}
		if withDate {
			date := ""
			if r.Date != nil {
				date = r.Date.Locale()
			}
			values = append(values, date)
		}
		for _, firm := range m.Firms {
			if c, ok := r.Cell(firm); ok {
				values = append(values, c.Price)
			} else {
				values = append(values, nil)
			}
		}
		if r.HasMin() {
			values = append(values, r.MinPrice)
		} else {
			values = append(values, nil)
		}

		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(MatrixSheet, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", rowNum, err)
		}

		first, _ := excelize.CoordinatesToCellName(firstFirmCol, rowNum)
		last, _ := excelize.CoordinatesToCellName(len(values), rowNum)
		if err := f.SetCellStyle(MatrixSheet, first, last, styles.price); err != nil {
			return fmt.Errorf("style row %d: %w", rowNum, err)
		}
		for j, firm := range m.Firms {
			if c, ok := r.Cell(firm); ok && c.IsMin {
				cell, _ := excelize.CoordinatesToCellName(firstFirmCol+j, rowNum)
				if err := f.SetCellStyle(MatrixSheet, cell, cell, styles.min); err != nil {
					return fmt.Errorf("style min cell %s: %w", cell, err)
				}
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetColWidth(MatrixSheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetPanes(MatrixSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

type matrixStyles struct {
	header int
	price  int
	min    int
}

func newMatrixStyles(f *excelize.File) (matrixStyles, error) {
	var s matrixStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Family: "Arial", Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return s, fmt.Errorf("create header style: %w", err)
	}

	s.price, err = f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return s, fmt.Errorf("create price style: %w", err)
	}

	s.min, err = f.NewStyle(&excelize.Style{
		NumFmt: 4,
		Font:   &excelize.Font{Bold: true, Color: "#006100"},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return s, fmt.Errorf("create min price style: %w", err)
	}
	return s, nil
}
