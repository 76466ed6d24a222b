package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/analytics"
	"github.com/wellnesslog/internal/wellness"
)

const chartWindow = 30

// loadEntries 读取当前用户的全部记录，失败时直接写出错误响应。
func (a *API) loadEntries(c *gin.Context) ([]wellness.Entry, bool) {
	entries, err := a.entries.List(c.Request.Context(), a.userID(c))
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entries")
		return nil, false
	}
	return entries, true
}

// DashboardStats 返回最近一周的均值概览
func (a *API) DashboardStats(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	respondSuccess(c, http.StatusOK, analytics.Dashboard(entries))
}

// DashboardCharts 返回最近 30 条记录的图表数据
func (a *API) DashboardCharts(c *gin.Context) {
	entries, err := a.entries.Recent(c.Request.Context(), a.userID(c), chartWindow)
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entries")
		return
	}
	respondSuccess(c, http.StatusOK, analytics.BuildCharts(entries))
}

// WeeklyReport 返回周报
func (a *API) WeeklyReport(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	report, ok := analytics.Weekly(entries)
	if !ok {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Need at least %d entries for weekly report", analytics.MinWeeklyEntries))
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

// MonthlyReport 返回月报
func (a *API) MonthlyReport(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	report, ok := analytics.Monthly(entries)
	if !ok {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Need at least %d entries for monthly report", analytics.MinMonthlyEntries))
		return
	}
	respondSuccess(c, http.StatusOK, report)
}

// Recommendations 返回个性化建议
func (a *API) Recommendations(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	recs, ok := analytics.Recommend(entries, a.now())
	if !ok {
		respondError(c, http.StatusBadRequest, "No data available")
		return
	}
	respondSuccess(c, http.StatusOK, recs)
}

// Trends 返回指标相关性与月度聚合
func (a *API) Trends(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	trends, ok := analytics.AnalyzeTrends(entries)
	if !ok {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Need at least %d entries", analytics.MinTrendEntries))
		return
	}
	respondSuccess(c, http.StatusOK, trends)
}

// Comparative 返回逐月对比分析
func (a *API) Comparative(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	if len(entries) < analytics.MinComparativeEntries {
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Need at least %d entries", analytics.MinComparativeEntries))
		return
	}
	comparison, ok := analytics.CompareMonths(entries)
	if !ok {
		respondError(c, http.StatusBadRequest, "Need at least 2 months of data")
		return
	}
	respondSuccess(c, http.StatusOK, comparison)
}
