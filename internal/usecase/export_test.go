package usecase

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xavierca1/lead-crm/internal/entity"
)

func TestExport_Execute(t *testing.T) {
	repo := new(MockLeadRepository)
	uc := NewExportUseCase(repo)
	uc.Now = func() time.Time { return fixedNow }

	won := *existingLead()
	won.Name = "Jane"
	won.Stage = entity.StageClosedWon
	repo.On("Search", mock.Anything, entity.LeadFilter{OwnerID: owner}).
		Return([]entity.Lead{won, *existingLead()}, nil)

	out, err := uc.Execute(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, "leads-export-2025-03-10.xlsx", out.Filename)
	assert.Equal(t, XLSXContentType, out.ContentType)

	f, err := excelize.OpenReader(bytes.NewReader(out.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Leads", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, "Jane", rows[1][0])
	assert.Equal(t, "closed-won", rows[1][3])
	assert.Equal(t, "Mar 10, 2025 11:00 AM", rows[2][5])

	total, err := f.GetCellValue("Summary", "B3")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	first, err := f.GetCellValue("Summary", "A7")
	require.NoError(t, err)
	assert.Equal(t, "new", first)
}

func TestExport_StoreFailure(t *testing.T) {
	repo := new(MockLeadRepository)
	uc := NewExportUseCase(repo)
	repo.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := uc.Execute(context.Background(), owner)

	var te *TechnicalError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, CodeDatabase, te.Code)
}
