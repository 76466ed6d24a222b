package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/service"
)

type profileRequest struct {
	AverageCycleLength *int           `json:"average_cycle_length"`
	LastPeriodStart    *string        `json:"last_period_start"`
	Preferences        map[string]any `json:"preferences"`
}

func (p profileRequest) toInput() service.ProfileInput {
	return service.ProfileInput{
		AverageCycleLength: p.AverageCycleLength,
		LastPeriodStart:    p.LastPeriodStart,
		Preferences:        p.Preferences,
	}
}

func profilePayload(profile *db.UserProfile) gin.H {
	var lastStart any
	if profile.LastPeriodStart != "" {
		lastStart = profile.LastPeriodStart
	}
	return gin.H{
		"user_id":              profile.UserID,
		"average_cycle_length": profile.AverageCycleLength,
		"last_period_start":    lastStart,
		"preferences":          profile.ClonePreferences(),
	}
}

// GetProfile 返回当前用户资料，不存在时创建默认资料
func (a *API) GetProfile(c *gin.Context) {
	profile, err := a.profiles.Get(c.Request.Context(), a.userID(c))
	if err != nil {
		a.handleServiceError(c, err, "Failed to load profile")
		return
	}
	respondSuccess(c, http.StatusOK, profilePayload(profile))
}

// UpdateProfile 更新当前用户资料
func (a *API) UpdateProfile(c *gin.Context) {
	var payload profileRequest
	if !bindJSON(c, &payload, "Invalid profile payload") {
		return
	}
	profile, err := a.profiles.Update(c.Request.Context(), a.userID(c), payload.toInput())
	if err != nil {
		a.handleServiceError(c, err, "Failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Profile updated", "data": profilePayload(profile)})
}
