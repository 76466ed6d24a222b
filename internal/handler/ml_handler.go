package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/wellness"
)

type mlStatusPayload struct {
	predictor.Status
	TotalEntries       int64 `json:"total_entries"`
	ScoreModelReady    bool  `json:"score_model_ready"`
	SequenceModelReady bool  `json:"sequence_model_ready"`
}

// PredictAdHoc 对请求中的记录评分但不保存
func (a *API) PredictAdHoc(c *gin.Context) {
	var raw map[string]any
	if !bindJSON(c, &raw, "Invalid JSON body") {
		return
	}
	entry := wellness.ParseEntry(raw, a.now())
	entry.UserID = a.userID(c)
	respondSuccess(c, http.StatusOK, a.models.Predict(entry))
}

// ModelStatus 返回两个模型的训练状态与训练门槛
func (a *API) ModelStatus(c *gin.Context) {
	count, err := a.entries.Count(c.Request.Context(), a.userID(c))
	if err != nil {
		a.handleServiceError(c, err, "Failed to count entries")
		return
	}
	respondSuccess(c, http.StatusOK, mlStatusPayload{
		Status:             a.models.Status(),
		TotalEntries:       count,
		ScoreModelReady:    count >= predictor.MinScoreTrainingEntries,
		SequenceModelReady: count >= predictor.MinSequenceTrainingEntries,
	})
}

// Forecast 用序列模型预测下一天的评分
func (a *API) Forecast(c *gin.Context) {
	recent, err := a.entries.Recent(c.Request.Context(), a.userID(c), predictor.SequenceWindow)
	if err != nil {
		a.handleServiceError(c, err, "Failed to load entries")
		return
	}
	respondSuccess(c, http.StatusOK, a.models.ForecastNext(recent))
}

// TrainModels 强制使用当前用户的历史重新训练两个模型
func (a *API) TrainModels(c *gin.Context) {
	entries, ok := a.loadEntries(c)
	if !ok {
		return
	}
	outcome, err := a.models.Train(c.Request.Context(), entries)
	if err != nil && !outcome.ScoreTrained && !outcome.SequenceTrained {
		a.handleServiceError(c, err, "Failed to train models")
		return
	}

	payload := gin.H{"trained": outcome, "status": a.models.Status()}
	if err != nil {
		payload["warning"] = err.Error()
	}
	respondSuccess(c, http.StatusOK, payload)
}
