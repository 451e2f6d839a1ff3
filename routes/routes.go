package routes

import (
	"github.com/gin-gonic/gin"
	config "github.com/phillip/event-manager-go/config"
	controllers "github.com/phillip/event-manager-go/controllers"
	middleware "github.com/phillip/event-manager-go/middleware"
	web "github.com/phillip/event-manager-go/web"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/api/auth/register", controllers.Register(cfg))
	r.POST("/api/auth/login", controllers.Login(cfg))
	r.POST("/api/auth/refresh", controllers.RefreshToken(cfg))

	// pages
	r.GET("/login", web.LoginPage())
	r.GET("/events", web.EventsPage())

	auth := middleware.AuthMiddleware(cfg)

	events := r.Group("/api/events")
	{
		// reads are public
		events.GET("/test", controllers.TestConnection(cfg))
		events.GET("", controllers.ListEvents(cfg))
		events.GET("/:id", controllers.GetEvent(cfg))

		// mutations and user-scoped reads require a token
		events.POST("", auth, controllers.CreateEvent(cfg))
		events.PUT("/:id", auth, controllers.UpdateEvent(cfg))
		events.DELETE("/:id", auth, controllers.DeleteEvent(cfg))
		events.POST("/:id/register", auth, controllers.RegisterForEvent(cfg))
		events.POST("/:id/unregister", auth, controllers.UnregisterFromEvent(cfg))
		events.GET("/user/registered", auth, controllers.ListRegisteredEvents(cfg))
		events.GET("/user/created", auth, controllers.ListCreatedEvents(cfg))
	}
}
