package handler

import (
	"net/http"

	"github.com/ggonzalesd/UniTable/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Services groups everything the router dispatches to.
type Services struct {
	Users      UserCommander
	UserReads  UserQuerier
	Groups     GroupCommander
	GroupReads GroupQuerier
	Auth       AuthQuerier
	Tokens     middleware.TokenVerifier
	Identities middleware.IdentityResolver
	// LoginLimiter is optional; login is not rate limited without it.
	LoginLimiter middleware.AttemptLimiter
}

// NewRouter builds the public HTTP surface of the service.
func NewRouter(svc Services, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(log), middleware.RequestLogger(log))

	userHandler := NewUserHandler(svc.Users, svc.UserReads)
	groupHandler := NewGroupHandler(svc.Groups, svc.GroupReads)
	authHandler := NewAuthHandler(svc.Auth)
	requireAuth := middleware.AuthMiddleware(svc.Tokens, svc.Identities)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "user-service"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth routes (no authentication required)
	login := []gin.HandlerFunc{authHandler.Login}
	if svc.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.LoginRateLimit(svc.LoginLimiter, log)}, login...)
	}
	router.POST("/v1/auth/login", login...)

	users := router.Group("/v1/users")
	{
		users.POST("", userHandler.Register) // No auth for registration
		users.GET("", requireAuth, userHandler.ListUsers)
		users.GET("/:userId", requireAuth, userHandler.GetUser)
		users.POST("/:userId/follow", requireAuth, userHandler.ToggleFollow)
	}

	me := router.Group("/v1/me", requireAuth)
	{
		me.GET("", userHandler.GetCurrentUser)
		me.PUT("", userHandler.UpdateProfile)
		me.DELETE("", userHandler.DeleteCurrentUser)
		me.POST("/premium", userHandler.TogglePremium)
		me.GET("/contacts", userHandler.ListContacts)
		me.GET("/follow-candidates", userHandler.ListFollowCandidates)
		me.GET("/groups", userHandler.ListGroups)
		me.POST("/groups/:groupId", userHandler.JoinGroup)
		me.GET("/rewards", userHandler.ListRewards)
		me.GET("/activities", userHandler.ListActivities)
	}

	groups := router.Group("/v1/groups", requireAuth)
	{
		groups.POST("", groupHandler.CreateGroup)
		groups.GET("", groupHandler.ListGroups)
		groups.GET("/:groupId/members", groupHandler.ListMembers)
	}

	return router
}
