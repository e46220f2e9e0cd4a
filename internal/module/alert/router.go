package alert

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	service "github.com/gabozzz15/DDS-SalvadorAllende-sub001/internal/service/alert"
)

type Router struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewRouter(svc *service.Service, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		svc:    svc,
		logger: logger,
	}
}

func (rt *Router) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1/alerts")
	{
		v1.GET("", rt.HandlerGetAlerts)
		v1.GET("/unread/count", rt.HandlerGetUnreadCount)
		v1.PATCH("/:id/read", rt.HandlerMarkAlertRead)
		v1.POST("/read-all", rt.HandlerMarkAllAlertsRead)
		v1.DELETE("/:id", rt.HandlerDeleteAlert)
	}
}
