package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/service"
)

const (
	mimeCSV  = "text/csv; charset=utf-8"
	mimeJSON = "application/json; charset=utf-8"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeText = "text/plain; charset=utf-8"

	maxImportBytes = 10 << 20
)

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, data)
}

// ExportCSV 以 CSV 下载全部记录
func (a *API) ExportCSV(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	data, err := a.exports.CSV(entries)
	if err != nil {
		a.handleServiceError(c, err, "Failed to export CSV")
		return
	}
	attachment(c, a.exports.FileName("wellness_data", "csv"), mimeCSV, data)
}

// ExportJSON 以 JSON 下载全部记录
func (a *API) ExportJSON(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	data, err := a.exports.JSON(entries)
	if err != nil {
		a.handleServiceError(c, err, "Failed to export JSON")
		return
	}
	attachment(c, a.exports.FileName("wellness_data", "json"), mimeJSON, data)
}

// ExportXLSX 以 Excel 下载全部记录
func (a *API) ExportXLSX(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	data, err := a.exports.XLSX(entries)
	if err != nil {
		a.handleServiceError(c, err, "Failed to export XLSX")
		return
	}
	attachment(c, a.exports.FileName("wellness_data", "xlsx"), mimeXLSX, data)
}

// ExportSummary 下载纯文本摘要
func (a *API) ExportSummary(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	attachment(c, a.exports.FileName("wellness_summary", "txt"), mimeText, []byte(a.exports.Summary(entries)))
}

// ImportJSON 导入 JSON 导出文件或旧版数据文件，已有记录的日期会被跳过
func (a *API) ImportJSON(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Failed to read request body")
		return
	}
	raws, err := service.ParseJSONExport(body)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if len(raws) == 0 {
		respondError(c, http.StatusBadRequest, "No entries to import")
		return
	}

	result, err := a.entries.Import(c.Request.Context(), a.userID(c), raws)
	if err != nil {
		a.handleServiceError(c, err, "Failed to import entries")
		return
	}
	respondSuccess(c, http.StatusOK, result)
}
