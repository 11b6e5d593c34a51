package routes

import (
	"net/http"

	"leadflow-backend/config"
	"leadflow-backend/controllers"
	"leadflow-backend/logger"
	"leadflow-backend/services"
	"leadflow-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(cfg *config.Config, engine *services.Engine, log *logger.Logger) (*gin.Engine, error) {
	if err := controllers.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(config.RequestID())
	r.Use(config.PerformanceLogger(log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	leadController := controllers.LeadController{Engine: engine}
	triggerController := controllers.TriggerController{Engine: engine}
	eventController := controllers.EventController{Engine: engine}
	reminderController := controllers.ReminderController{Reminders: engine.Reminders}
	dashboardController := controllers.DashboardController{Engine: engine}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware(cfg.JWTSecret))
	{
		api.POST("/leads/:id/stage", leadController.ChangeStage)

		triggers := api.Group("/triggers")
		{
			triggers.POST("/stage-entry", triggerController.StageEntry)
			triggers.POST("/stage-timeout", triggerController.StageTimeout)
			triggers.POST("/check-timeouts", triggerController.CheckTimeouts)
		}

		// Event rule routes
		events := api.Group("/events")
		{
			events.POST("", eventController.CreateEvent)
			events.GET("", eventController.GetEvents)
			events.POST("/validate-template", eventController.ValidateTemplate)
		}

		reminders := api.Group("/reminders")
		{
			reminders.POST("", reminderController.CreateReminder)
			reminders.GET("", reminderController.GetReminders)
			reminders.GET("/logs", reminderController.GetReminderLogs)
			reminders.GET("/stats", reminderController.GetReminderStats)
			reminders.POST("/send-now", reminderController.SendAdHoc)
			reminders.POST("/send-due", reminderController.SendDue)
			reminders.POST("/:id/send-now", reminderController.SendReminderNow)
		}

		api.GET("/dashboard", dashboardController.GetDashboardOverview)
	}

	return r, nil
}
