package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/lead-crm/internal/entity"
)

const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	leadsSheet   = "Leads"
	summarySheet = "Summary"
	exportTime   = "Jan 02, 2006 03:04 PM"
)

type ExportUseCase struct {
	Leads entity.LeadRepositoryInterface
	Now   func() time.Time
}

func NewExportUseCase(leads entity.LeadRepositoryInterface) *ExportUseCase {
	return &ExportUseCase{Leads: leads, Now: time.Now}
}

// Execute renders every lead owned by ownerID, newest first, into an xlsx workbook.
func (uc *ExportUseCase) Execute(ctx context.Context, ownerID string) (*ExportOutput, error) {
	leads, err := uc.Leads.Search(ctx, entity.LeadFilter{OwnerID: ownerID})
	if err != nil {
		return nil, newDatabaseError("load leads for export", err)
	}

	now := uc.Now().UTC()
	body, err := buildWorkbook(leads, now)
	if err != nil {
		return nil, &TechnicalError{Code: CodeExport, Message: "failed to build spreadsheet", Err: err}
	}

	return &ExportOutput{
		Filename:    fmt.Sprintf("leads-export-%s.xlsx", now.Format(time.DateOnly)),
		ContentType: XLSXContentType,
		Body:        body,
	}, nil
}

func buildWorkbook(leads []entity.Lead, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return nil, err
	}
	if err := writeLeadsSheet(f, leads); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, leads, now); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var leadColumns = []struct {
	header string
	width  float64
}{
	{"Name", 20},
	{"Email", 30},
	{"Company", 20},
	{"Stage", 15},
	{"Notes", 40},
	{"Created Date", 20},
	{"Last Updated", 20},
}

func writeLeadsSheet(f *excelize.File, leads []entity.Lead) error {
	header := make([]any, len(leadColumns))
	for i, c := range leadColumns {
		header[i] = c.header
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(leadsSheet, col, col, c.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(leadsSheet, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6F3FF"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(leadsSheet, 1, 1, style); err != nil {
		return err
	}

	for i, l := range leads {
		row := []any{
			l.Name,
			l.Email,
			l.Company,
			string(l.Stage),
			l.Notes,
			l.CreatedAt.UTC().Format(exportTime),
			l.UpdatedAt.UTC().Format(exportTime),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(leadsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, leads []entity.Lead, now time.Time) error {
	counts := make(map[entity.Stage]int)
	for _, l := range leads {
		counts[l.Stage]++
	}

	cells := map[string]any{
		"A1": "CRM Lead Management Summary",
		"A3": "Total Leads:",
		"B3": len(leads),
		"A4": "Export Date:",
		"B4": now.Format(exportTime),
		"A6": "Pipeline Breakdown:",
	}
	for cell, v := range cells {
		if err := f.SetCellValue(summarySheet, cell, v); err != nil {
			return err
		}
	}

	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A6", "A6", bold); err != nil {
		return err
	}

	row := 7
	for _, s := range entity.Stages {
		n := counts[s]
		if n == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{string(s), n}); err != nil {
			return err
		}
		row++
	}
	return nil
}
