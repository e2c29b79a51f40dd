package api

import (
	"log"
	stdhttp "net/http"

	intconfig "busline/internal/config"
	h "busline/internal/http/handlers"
	"busline/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	h.SetConfig(env)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Printf("warning: failed to set trusted proxies: %v", err)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route tidak ditemukan",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	admin := []gin.HandlerFunc{
		middleware.RequireAuth(env.JWTSecret),
		middleware.RequireRoles("owner", "admin"),
	}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		auth := api.Group("/auth")
		auth.POST("/login", h.Login)

		trips := api.Group("/trips")
		trips.GET("", h.ListTrips)
		trips.POST("", append(admin, h.CreateTrip)...)
		trips.POST("/generate", append(admin, h.GenerateTrips)...)
		trips.PUT("/:id/delay", append(admin, h.DelayTrip)...)
		trips.PUT("/:id/status", append(admin, h.UpdateTripStatus)...)
		trips.GET("/:id/seats", h.TripSeats)
		trips.POST("/:id/quote", h.QuoteTrip)
		trips.POST("/:id/bookings", h.ReserveSeats)

		bookings := api.Group("/bookings")
		bookings.GET("/:id", h.GetBooking)
		bookings.PUT("/:id/confirm", h.ConfirmBooking)
		bookings.DELETE("/:id", h.ReleaseBooking)
		bookings.GET("/:id/e-ticket", h.BookingETicket)

		loyalty := api.Group("/loyalty")
		loyalty.GET("/:passengerId", h.GetLoyaltyAccount)
		loyalty.POST("/:passengerId/award", append(admin, h.AwardPoints)...)
		loyalty.POST("/:passengerId/redeem", h.RedeemPoints)
	}

	return r
}
