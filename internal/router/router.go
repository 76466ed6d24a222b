package router

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wellnesslog/internal/handler"
	"github.com/wellnesslog/internal/logging"
)

const sessionName = "wellnesslog_session"

// Options 控制路由层的中间件。
type Options struct {
	SessionSecret string
	// CORSOrigin 为 "*" 时允许任意来源；也可以是逗号分隔的白名单。
	CORSOrigin string
	Logger     zerolog.Logger
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logging.Middleware(opts.Logger, handler.UserIDKey))
	r.Use(CORS(opts.CORSOrigin))

	// 配置会话中间件
	secret := opts.SessionSecret
	if secret == "" {
		secret = "wellnesslog-dev-secret"
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 30 * 24 * 3600, HttpOnly: true, SameSite: http.SameSiteLaxMode})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiGroup := r.Group("/api")
	apiGroup.GET("/health", api.HealthCheck)

	scoped := apiGroup.Group("")
	scoped.Use(api.ResolveUser())
	{
		scoped.GET("/entries", api.ListEntries)
		scoped.GET("/entries/recent", api.RecentEntries)
		scoped.GET("/entries/:date", api.GetEntry)
		scoped.POST("/entries", api.SaveEntry)
		scoped.DELETE("/entries/:date", api.DeleteEntry)

		scoped.GET("/dashboard/stats", api.DashboardStats)
		scoped.GET("/dashboard/charts", api.DashboardCharts)

		scoped.GET("/reports/weekly", api.WeeklyReport)
		scoped.GET("/reports/monthly", api.MonthlyReport)
		scoped.GET("/recommendations", api.Recommendations)

		scoped.GET("/cycle/predict", api.PredictCycle)
		scoped.GET("/cycle/symptoms", api.SymptomForecast)
		scoped.GET("/cycle/calendar", api.CycleCalendar)

		scoped.GET("/analytics/trends", api.Trends)
		scoped.GET("/analytics/comparative", api.Comparative)

		scoped.GET("/export/csv", api.ExportCSV)
		scoped.GET("/export/json", api.ExportJSON)
		scoped.GET("/export/xlsx", api.ExportXLSX)
		scoped.GET("/export/summary", api.ExportSummary)
		scoped.POST("/import/json", api.ImportJSON)

		scoped.POST("/ml/predict", api.PredictAdHoc)
		scoped.GET("/ml/status", api.ModelStatus)
		scoped.GET("/ml/forecast", api.Forecast)
		scoped.POST("/ml/train", api.TrainModels)

		scoped.GET("/profile", api.GetProfile)
		scoped.PUT("/profile", api.UpdateProfile)
	}

	return r
}

// CORS 按来源白名单设置跨域响应头，并直接应答预检请求。
func CORS(allowed string) gin.HandlerFunc {
	origins := map[string]bool{}
	wildcard := false
	for _, origin := range strings.Split(allowed, ",") {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			wildcard = true
		default:
			origins[origin] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case wildcard:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && origins[origin]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-ID, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
