package excel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/voicereachhq/voicereach-backend/internal/database/repository"
	"github.com/voicereachhq/voicereach-backend/internal/models"
)

// Service handles Excel import and export for leads
type Service struct {
	leadRepo   *repository.LeadRepository
	exportsDir string
}

// NewExcelService creates a new Excel service instance
func NewExcelService(leadRepo *repository.LeadRepository, exportsDir string) *Service {
	if _, err := os.Stat(exportsDir); os.IsNotExist(err) {
		os.MkdirAll(exportsDir, 0755)
	}

	return &Service{
		leadRepo:   leadRepo,
		exportsDir: exportsDir,
	}
}

// ExportResult contains the result of an export operation
type ExportResult struct {
	Success  bool
	Message  string
	Filename string
	FilePath string
}

// ImportResult contains the result of an import operation
type ImportResult struct {
	Success      bool
	Message      string
	RecordsCount int
	SkippedRows  []string
}

var leadColumns = []string{
	"first_name", "last_name", "email", "phone",
	"source", "status", "budget", "timeline", "notes",
	"created_at", "updated_at",
}

// ExportLeads writes all of a user's leads to an Excel file
func (s *Service) ExportLeads(userID string) (*ExportResult, error) {
	// Unique name so concurrent exports by the same user never collide
	filename := fmt.Sprintf("leads_%d_%s.xlsx", time.Now().Unix(), uuid.New().String()[:8])
	filePath := filepath.Join(s.exportsDir, filename)

	leads, err := s.leadRepo.GetAllByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get leads: %w", err)
	}

	f := excelize.NewFile()

	sheetName := "Leads"
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	f.SetActiveSheet(0)

	// Row fills by lead status
	qualifiedStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"C6EFCE"}, // Green
			Pattern: 1,
		},
	})
	lostStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"D9D9D9"}, // Gray
			Pattern: 1,
		},
	})
	scheduledStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"FFFF00"}, // Yellow
			Pattern: 1,
		},
	})

	for i, col := range leadColumns {
		cell := fmt.Sprintf("%s1", columnToLetter(i+1))
		f.SetCellValue(sheetName, cell, col)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"BDD7EE"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", columnToLetter(len(leadColumns))+"1", headerStyle)
	}

	for i, col := range leadColumns {
		colLetter := columnToLetter(i + 1)
		width := 20.0

		switch col {
		case "first_name", "last_name", "status", "source":
			width = 15.0
		case "email", "phone":
			width = 25.0
		case "notes":
			width = 50.0
		}

		f.SetColWidth(sheetName, colLetter, colLetter, width)
	}

	if len(leads) > 0 {
		for j, lead := range leads {
			rowNum := j + 2 // Start from row 2 (after headers)

			var budget string
			if lead.Budget != nil {
				budget = strconv.FormatInt(*lead.Budget, 10)
			}

			f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), lead.FirstName)
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowNum), lead.LastName)
			f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), lead.Email)
			f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowNum), lead.Phone)
			f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowNum), string(lead.Source))
			f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), string(lead.Status))
			f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowNum), budget)
			f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowNum), lead.Timeline)
			f.SetCellValue(sheetName, fmt.Sprintf("I%d", rowNum), lead.Notes)
			f.SetCellValue(sheetName, fmt.Sprintf("J%d", rowNum), lead.CreatedAt.Format(time.RFC3339))
			f.SetCellValue(sheetName, fmt.Sprintf("K%d", rowNum), lead.UpdatedAt.Format(time.RFC3339))

			lastCell := fmt.Sprintf("%s%d", columnToLetter(len(leadColumns)), rowNum)
			switch lead.Status {
			case models.LeadStatusQualified:
				f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, qualifiedStyle)
			case models.LeadStatusScheduled:
				f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, scheduledStyle)
			case models.LeadStatusLost, models.LeadStatusClosed:
				f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), lastCell, lostStyle)
			}
		}
	} else {
		f.SetCellValue(sheetName, "A2", "no leads found")
	}

	if err := f.SaveAs(filePath); err != nil {
		return nil, fmt.Errorf("failed to save Excel file: %w", err)
	}

	return &ExportResult{
		Success:  true,
		Message:  fmt.Sprintf("Successfully exported %d leads", len(leads)),
		Filename: filename,
		FilePath: filePath,
	}, nil
}

// ImportLeads reads leads from an uploaded Excel file and creates them for
// the user. Rows missing a first name or phone are skipped, not fatal.
func (s *Service) ImportLeads(userID string, reader io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return &ImportResult{Success: true, Message: "No data rows found"}, nil
	}

	// Map headers so column order doesn't matter
	colIndex := make(map[string]int)
	for i, header := range rows[0] {
		colIndex[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"first_name", "phone"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var leads []*models.Lead
	var skipped []string
	for rowNum, row := range rows[1:] {
		firstName := cell(row, "first_name")
		phone := cell(row, "phone")
		if firstName == "" || phone == "" {
			skipped = append(skipped, fmt.Sprintf("row %d: missing first_name or phone", rowNum+2))
			continue
		}

		source := models.LeadSource(strings.ToUpper(cell(row, "source")))
		switch source {
		case models.LeadSourceOpenHouse, models.LeadSourceWebsite, models.LeadSourceReferral,
			models.LeadSourceFacebook, models.LeadSourceZillow, models.LeadSourceRealtorCom:
		default:
			source = models.LeadSourceOther
		}

		lead := &models.Lead{
			UserID:    userID,
			FirstName: firstName,
			LastName:  cell(row, "last_name"),
			Email:     cell(row, "email"),
			Phone:     phone,
			Source:    source,
			Status:    models.LeadStatusNew,
			Timeline:  cell(row, "timeline"),
			Notes:     cell(row, "notes"),
		}
		if budgetStr := cell(row, "budget"); budgetStr != "" {
			if budget, err := strconv.ParseInt(strings.ReplaceAll(budgetStr, ",", ""), 10, 64); err == nil {
				lead.Budget = &budget
			} else {
				skipped = append(skipped, fmt.Sprintf("row %d: unparseable budget %q", rowNum+2, budgetStr))
			}
		}
		leads = append(leads, lead)
	}

	if len(leads) > 0 {
		if err := s.leadRepo.CreateBatch(leads); err != nil {
			return nil, fmt.Errorf("failed to save imported leads: %w", err)
		}
	}

	return &ImportResult{
		Success:      true,
		Message:      fmt.Sprintf("Imported %d leads (%d rows skipped)", len(leads), len(skipped)),
		RecordsCount: len(leads),
		SkippedRows:  skipped,
	}, nil
}

// Helper function to convert column number to Excel column letter
func columnToLetter(col int) string {
	var result string
	for col > 0 {
		col--
		result = string(rune('A'+col%26)) + result
		col /= 26
	}
	return result
}
