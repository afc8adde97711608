package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/taskshare/api/handler"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Task         *apiHandler.TaskHandler
	Notification *apiHandler.NotificationHandler
	Analytics    *apiHandler.AnalyticsHandler
	Health       *apiHandler.HealthHandler
	Live         *apiHandler.LiveHandler
}

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	// The live channel authenticates itself before upgrading.
	r.GET("/ws", handlers.Live.Serve)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", authMiddleware(handlers.Profile.UpdateProfile))
	r.PUT("/api/v1/profile/password", authMiddleware(handlers.Profile.ChangePassword))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/tasks/{id}/share", authMiddleware(handlers.Task.ShareTask))
	r.PUT("/api/v1/tasks/{id}/progress", authMiddleware(handlers.Task.UpdateProgress))

	r.GET("/api/v1/notifications", authMiddleware(handlers.Notification.List))
	r.POST("/api/v1/notifications/mark-read", authMiddleware(handlers.Notification.MarkRead))
	r.POST("/api/v1/notifications/mark-all-read", authMiddleware(handlers.Notification.MarkAllRead))

	r.GET("/api/v1/analytics/summary", authMiddleware(handlers.Analytics.Summary))
	r.GET("/api/v1/analytics/trends", authMiddleware(handlers.Analytics.Trends))
	r.GET("/api/v1/analytics/status-breakdown", authMiddleware(handlers.Analytics.StatusBreakdown))
	r.GET("/api/v1/analytics/participant-progress", authMiddleware(handlers.Analytics.ParticipantProgress))

	return r
}

// Wrap applies the outer middleware chain, outermost first.
func Wrap(h fasthttp.RequestHandler, chain ...Middleware) fasthttp.RequestHandler {
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}
