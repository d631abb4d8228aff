package handlers

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/giygas/pediatric-drug-calculator/dosage"
	"github.com/giygas/pediatric-drug-calculator/interfaces"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSystems = "Medical Systems"
	sheetDrugs   = "Drugs"
	sheetBands   = "Dosage Bands"
)

type sheet struct {
	name    string
	headers []string
	widths  []float64
	rows    [][]any
}

// BuildCatalogWorkbook renders the catalog as an XLSX workbook with one
// sheet per table. Bands are listed in authored order per drug.
func BuildCatalogWorkbook(catalog interfaces.Catalog) ([]byte, error) {
	systemNames := make(map[string]string, len(catalog.Systems))
	systems := sheet{
		name:    sheetSystems,
		headers: []string{"ID", "Name", "Category", "Icon", "Description"},
		widths:  []float64{8, 32, 16, 8, 60},
	}
	for _, m := range catalog.Systems {
		systemNames[m.ID] = m.Name
		systems.rows = append(systems.rows, []any{m.ID, m.Name, m.Category, m.Icon, m.Description})
	}

	drugNames := make(map[string]string, len(catalog.Drugs))
	drugs := sheet{
		name:    sheetDrugs,
		headers: []string{"ID", "Name", "Generic Name", "Brand Name", "Medical System", "Indications", "Contraindications", "Side Effects", "Monitoring"},
		widths:  []float64{38, 28, 24, 24, 28, 40, 40, 40, 40},
	}
	for _, d := range catalog.Drugs {
		drugNames[d.ID] = d.Name
		drugs.rows = append(drugs.rows, []any{
			d.ID, d.Name, d.GenericName, d.BrandName, systemNames[d.MedicalSystemID],
			d.Indications, d.Contraindications, d.SideEffects, d.Monitoring,
		})
	}

	bands := sheet{
		name:    sheetBands,
		headers: []string{"Drug", "Age Group", "Weight Range", "Dose", "Frequency", "Route", "Max Dose", "Min Dose", "Notes", "Computable"},
		widths:  []float64{28, 12, 14, 40, 20, 14, 24, 24, 40, 12},
	}
	for _, b := range catalog.Dosages {
		computable := "No"
		if _, err := dosage.ComputeDose(1, b.Dose); err == nil {
			computable = "Yes"
		}
		bands.rows = append(bands.rows, []any{
			drugNames[b.DrugID], string(b.AgeGroup), b.WeightRange, b.Dose, b.Frequency,
			b.Route, b.MaxDose, b.MinDose, b.Notes, computable,
		})
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, s := range []sheet{systems, drugs, bands} {
		if err := writeSheet(f, s, headerStyle); err != nil {
			return nil, err
		}
		if i == 0 {
			if err := f.DeleteSheet("Sheet1"); err != nil {
				return nil, fmt.Errorf("failed to delete default sheet: %w", err)
			}
		}
	}

	index, err := f.GetSheetIndex(sheetSystems)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if _, err := f.NewSheet(s.name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
	}

	headers := make([]any, len(s.headers))
	for i, h := range s.headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(s.name, "A1", &headers); err != nil {
		return fmt.Errorf("failed to write %s header: %w", s.name, err)
	}

	last, err := excelize.ColumnNumberToName(len(s.headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(s.name, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", s.name, err)
	}

	for i, w := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		for j, v := range row {
			if str, ok := v.(string); ok {
				row[j] = strings.TrimSpace(str)
			}
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", s.name, i+2, err)
		}
	}

	return f.SetPanes(s.name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
