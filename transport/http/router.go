package http

import (
	"github.com/gin-gonic/gin"

	"github.com/layer-3/warden/service"
)

// SetupRouter sets up the Gin router
func SetupRouter(recovery *service.Recovery, authService *service.Auth) *gin.Engine {
	router := gin.Default()

	authHandlers := NewAuthHandlers(authService)
	recoveryHandlers := NewRecoveryHandlers(recovery)

	// Owner sign-in routes
	auth := router.Group("/auth")
	{
		auth.POST("/challenge", authHandlers.Challenge)
		auth.POST("/login", authHandlers.Login)
		auth.POST("/logout", authHandlers.Logout)
	}

	// Recovery routes open to guardians, relayers and anyone finalizing
	recoveryGroup := router.Group("/recovery")
	{
		recoveryGroup.POST("/initialize", recoveryHandlers.Initialize)
		recoveryGroup.POST("/start", recoveryHandlers.Start)
		recoveryGroup.POST("/proofs", recoveryHandlers.SubmitProof)
		recoveryGroup.POST("/execute", recoveryHandlers.Execute)
		recoveryGroup.POST("/clear", recoveryHandlers.ClearExpired)
		recoveryGroup.GET("/status", recoveryHandlers.Status)
		recoveryGroup.GET("/guardians", recoveryHandlers.Guardians)
		recoveryGroup.GET("/guardians/:index", recoveryHandlers.Guardian)
	}

	// Owner-gated routes: only the authenticated account controller may
	// veto a session or replace the policy
	owner := router.Group("/recovery")
	owner.Use(AuthMiddleware(authService))
	{
		owner.POST("/cancel", recoveryHandlers.Cancel)
		owner.PUT("/policy", recoveryHandlers.UpdatePolicy)
	}

	return router
}
