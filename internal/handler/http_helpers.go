package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/service"
)

// UserIDKey 是 gin.Context 与会话中保存用户标识的键。
const UserIDKey = "user_id"

// UserIDHeader 允许客户端直接声明用户标识。
const UserIDHeader = "X-User-ID"

func respondSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// handleServiceError 把服务层的哨兵错误映射为 HTTP 状态码。
func (a *API) handleServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		respondError(c, http.StatusNotFound, "Entry not found")
	case errors.Is(err, service.ErrInvalidDate):
		respondError(c, http.StatusBadRequest, service.ErrInvalidDate.Error())
	case errors.Is(err, service.ErrMissingUser):
		respondError(c, http.StatusBadRequest, service.ErrMissingUser.Error())
	case errors.Is(err, service.ErrProfileInvalidInput):
		respondError(c, http.StatusBadRequest, "Invalid profile: cycle length must be 1-90 and dates YYYY-MM-DD")
	case errors.Is(err, service.ErrNoData):
		respondError(c, http.StatusBadRequest, "No data to export")
	case errors.Is(err, predictor.ErrInsufficientData):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		_ = c.Error(err)
		a.log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}

// ResolveUser 依次从请求头、查询参数、会话中解析用户标识，都没有时使用默认用户。
// 解析结果写回会话，后续请求无需重复声明。
func (a *API) ResolveUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
		if userID == "" {
			userID = strings.TrimSpace(c.Query(UserIDKey))
		}
		if userID == "" {
			if stored, ok := session.Get(UserIDKey).(string); ok {
				userID = stored
			}
		}
		if userID == "" {
			userID = a.defaultUser
		}

		if current, _ := session.Get(UserIDKey).(string); current != userID {
			session.Set(UserIDKey, userID)
			if err := session.Save(); err != nil {
				a.log.Warn().Err(err).Msg("save session failed")
			}
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func (a *API) userID(c *gin.Context) string {
	if value := c.GetString(UserIDKey); value != "" {
		return value
	}
	return a.defaultUser
}

// queryInt 解析正整数查询参数，缺失或非法时返回默认值。
func queryInt(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
