package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voicereachhq/voicereach-backend/internal/services/excel"
)

type ExcelHandler struct {
	excelService *excel.Service
}

func NewExcelHandler(excelService *excel.Service) *ExcelHandler {
	return &ExcelHandler{
		excelService: excelService,
	}
}

// ExportLeads godoc
// @Summary Export leads to Excel
// @Description Export all of the current user's leads as an .xlsx download
// @Tags leads
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} binary
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/export [get]
func (h *ExcelHandler) ExportLeads(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	result, err := h.excelService.ExportLeads(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export leads", "details": err.Error()})
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.File(result.FilePath)
}

// ImportLeads godoc
// @Summary Import leads from Excel
// @Description Import leads for the current user from an uploaded .xlsx file
// @Tags leads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Excel file with lead rows"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/leads/import [post]
func (h *ExcelHandler) ImportLeads(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload", "details": err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.excelService.ImportLeads(userID, file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import leads", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       result.Message,
		"records_count": result.RecordsCount,
		"skipped_rows":  result.SkippedRows,
	})
}
