package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/ticketbooker/internal/entity"
	"github.com/ds124wfegd/ticketbooker/internal/service"
	"github.com/ds124wfegd/ticketbooker/internal/transport/middleware"
	"github.com/ds124wfegd/ticketbooker/pkg/auth"
	"github.com/gin-gonic/gin"
)

func InitRoutes(services *service.Service, tokens *auth.TokenManager, timeout time.Duration) *gin.Engine {
	eventHandler := NewEventHandler(services.Events)
	bookingHandler := NewBookingHandler(services.Bookings)
	authHandler := NewAuthHandler(services.Users)
	queueHandler := NewQueueHandler(services.Queue)

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(timeout))

	requireAuth := middleware.RequireAuth(tokens)
	requireAdmin := middleware.RequireRole(string(entity.RoleAdmin))

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":    "ok",
				"timestamp": time.Now().UTC(),
			})
		})

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/me", requireAuth, authHandler.Me)
		}

		// Event routes
		events := api.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.POST("", requireAuth, requireAdmin, eventHandler.CreateEvent)
			events.PUT("/:id", requireAuth, requireAdmin, eventHandler.UpdateEvent)
			events.DELETE("/:id", requireAuth, requireAdmin, eventHandler.DeleteEvent)
			events.PATCH("/:id/seats", requireAuth, requireAdmin, eventHandler.UpdateAvailableSeats)
		}

		// Booking routes
		bookings := api.Group("/bookings", requireAuth)
		{
			bookings.POST("", bookingHandler.ReserveSeats)
			bookings.GET("/user", bookingHandler.GetUserBookings)
			bookings.GET("/:id", bookingHandler.GetBooking)
		}

		admin := api.Group("/admin", requireAuth, requireAdmin)
		{
			admin.GET("/queue", queueHandler.GetQueue)
			admin.POST("/queue/requeue/:taskId", queueHandler.RequeueTask)
		}
	}

	return router
}
