package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/service"
	"github.com/wellnesslog/internal/wellness"
)

const defaultRecentLimit = 30

// ListEntries 返回当前用户的全部记录
func (a *API) ListEntries(c *gin.Context) {
	entries, err := a.entries.List(c.Request.Context(), a.userID(c))
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entries")
		return
	}
	respondSuccess(c, http.StatusOK, service.NewEntryRecords(entries))
}

// RecentEntries 返回最近 limit 条记录
func (a *API) RecentEntries(c *gin.Context) {
	limit := queryInt(c, "limit", defaultRecentLimit)
	entries, err := a.entries.Recent(c.Request.Context(), a.userID(c), limit)
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entries")
		return
	}
	respondSuccess(c, http.StatusOK, service.NewEntryRecords(entries))
}

// GetEntry 返回指定日期的记录
func (a *API) GetEntry(c *gin.Context) {
	entry, err := a.entries.GetByDate(c.Request.Context(), a.userID(c), c.Param("date"))
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entry")
		return
	}
	respondSuccess(c, http.StatusOK, service.NewEntryRecord(entry))
}

// SaveEntry 创建或合并当天的记录，并返回评分与模型训练情况
func (a *API) SaveEntry(c *gin.Context) {
	var raw map[string]any
	if !bindJSON(c, &raw, "Invalid JSON body") {
		return
	}

	// 显式提供但无法解析的日期直接拒绝，避免静默写到今天
	if value, ok := raw["date"]; ok && value != nil {
		date, isString := value.(string)
		if !isString {
			respondError(c, http.StatusBadRequest, service.ErrInvalidDate.Error())
			return
		}
		if strings.TrimSpace(date) != "" {
			if _, err := wellness.ParseDate(strings.TrimSpace(date)); err != nil {
				respondError(c, http.StatusBadRequest, service.ErrInvalidDate.Error())
				return
			}
		}
	}

	entry := wellness.ParseEntry(raw, a.now())
	entry.UserID = a.userID(c)

	result, err := a.entries.Save(c.Request.Context(), entry)
	if err != nil {
		a.handleServiceError(c, err, "Failed to save entry")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"success":  true,
		"created":  result.Created,
		"data":     service.NewEntryRecord(result.Entry),
		"insights": result.Insights,
		"ml_trained": gin.H{
			"score_model":    result.Trained.ScoreTrained,
			"sequence_model": result.Trained.SequenceTrained,
		},
		"ml_status": result.Status,
	})
}

// DeleteEntry 删除指定日期的记录
func (a *API) DeleteEntry(c *gin.Context) {
	if err := a.entries.Delete(c.Request.Context(), a.userID(c), c.Param("date")); err != nil {
		a.handleServiceError(c, err, "Failed to delete entry")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Entry deleted"})
}
