package router

import (
	"net/http"
	"time"

	"rccafe/internal/auth"
	"rccafe/internal/config"
	"rccafe/internal/handlers"
	"rccafe/internal/logger"
	"rccafe/internal/models"
	"rccafe/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Setup builds the HTTP engine with every route. Storage and the websocket hub must be
// initialised by the caller.
func Setup() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware())

	origins := config.Get().CORSOrigins
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = origins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ws_clients": ws.HubInstance.ClientCount()})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/refresh", handlers.RefreshToken)
		authGroup.POST("/forgot-password", handlers.ForgotPassword)
		authGroup.POST("/verify-reset-code", handlers.VerifyResetCode)
		authGroup.POST("/reset-password", handlers.ResetPassword)
	}

	api := r.Group("/api")
	api.GET("/tracks", handlers.ListTracks)
	api.GET("/games", handlers.ListGames)

	staffOnly := []gin.HandlerFunc{auth.AuthMiddleware(), auth.RequireRoles(models.RoleStaff)}
	timers := api.Group("/timers")
	{
		timers.GET("", auth.OptionalAuth(), handlers.ListTimers)
		timers.GET("/ws", ws.TimerWebSocketHandler)
		timers.GET("/:id", handlers.GetTimer)
		timers.POST("", append(staffOnly, handlers.CreateTimer)...)
		timers.PATCH("/:id", append(staffOnly, handlers.UpdateTimer)...)
		timers.DELETE("/:id", append(staffOnly, handlers.DeleteTimer)...)
	}

	user := api.Group("", auth.AuthMiddleware())
	{
		user.GET("/user/profile", handlers.GetProfile)
		user.PUT("/user/profile", handlers.UpdateProfile)

		user.GET("/bookings", handlers.ListMyBookings)
		user.POST("/bookings", handlers.CreateBooking)
		user.DELETE("/bookings/:id", handlers.CancelMyBooking)

		user.GET("/points", handlers.MyPoints)

		user.GET("/memberships", handlers.MyMemberships)
		user.GET("/memberships/me", handlers.MyActiveMembership)
	}

	staff := api.Group("/staff", auth.AuthMiddleware(), auth.RequireRoles(models.RoleStaff))
	{
		staff.GET("/stats", handlers.GetStaffStats)
		staff.GET("/customers", handlers.ListStaffCustomers)
		staff.GET("/bookings", handlers.StaffListBookings)
		staff.POST("/allocate-points", handlers.AllocatePoints)
	}

	desk := api.Group("/admin", auth.AuthMiddleware(), auth.RequireRoles(models.RoleStaff))
	{
		desk.POST("/bookings/:id/cancel", handlers.StaffCancelBooking)
		desk.PATCH("/bookings/:id/payment", handlers.RecordPayment)
		desk.DELETE("/bookings/:id", handlers.DeleteBooking)
	}

	admin := api.Group("/admin", auth.AuthMiddleware(), auth.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/stats", handlers.GetAdminStats)
		admin.GET("/reports", handlers.GetAdminReport)

		admin.GET("/users", handlers.AdminListUsers)
		admin.GET("/users/:id", handlers.AdminGetUser)

		admin.POST("/tracks", handlers.CreateTrack)
		admin.PATCH("/tracks/:id", handlers.UpdateTrack)

		admin.GET("/games", handlers.AdminListGames)
		admin.POST("/games", handlers.CreateGame)
		admin.GET("/games/:id", handlers.AdminGetGame)
		admin.PATCH("/games/:id", handlers.UpdateGame)
		admin.DELETE("/games/:id", handlers.DeleteGame)

		admin.GET("/bookings", handlers.AdminListBookings)
		admin.POST("/bookings/:id/confirm", handlers.ConfirmBooking)

		admin.GET("/points", handlers.AdminListPoints)
		admin.PATCH("/points/:id", handlers.UpdatePoint)
		admin.DELETE("/points/:id", handlers.DeletePoint)

		admin.GET("/memberships", handlers.AdminListMemberships)
		admin.POST("/memberships", handlers.CreateMembership)
		admin.GET("/memberships/:id", handlers.AdminGetMembership)
		admin.PATCH("/memberships/:id", handlers.UpdateMembership)
		admin.POST("/memberships/:id/sessions", handlers.UseMembershipSession)
		admin.PATCH("/memberships/:id/sessions/:sessionId", handlers.UpdateMembershipSession)
		admin.DELETE("/memberships/:id/sessions/:sessionId", handlers.DeleteMembershipSession)
	}

	return r
}
