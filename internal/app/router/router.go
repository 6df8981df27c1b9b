package router

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	userhandler "user_backend/internal/feature/users/transport/handler"
	"user_backend/internal/platform/http/handler"
	"user_backend/internal/platform/http/middleware"
	"user_backend/internal/platform/security"
)

// Deps are the collaborators NewRouter wires into the engine.
type Deps struct {
	Users         *userhandler.UserHandler
	Authenticator security.Authenticator
	Policy        *security.Policy
	Realm         string
	// AllowedOrigins of "*" allows any origin.
	AllowedOrigins []string
	ReadyChecks    map[string]handler.Check
}

// NewRouter builds the gin engine with the middleware chain, health endpoints and the /users routes.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.AccessLog(),
		cors.New(corsConfig(d.AllowedOrigins)),
		// アクセス制御はポリシーテーブルで決まる（既定では /users/** は認証不要）
		security.BasicAuth(d.Policy, d.Authenticator, d.Realm),
	)

	// 導通確認用
	r.Match([]string{http.MethodGet, http.MethodHead, http.MethodOptions}, "/healthz", handler.Health)
	r.GET("/readyz", handler.Ready(d.ReadyChecks))

	users := r.Group("/users")
	{
		users.POST("", d.Users.Create)
		users.GET("", d.Users.List)
		users.GET("/:id", d.Users.Get)
		users.PUT("/:id", d.Users.Update)
		users.DELETE("/:id", d.Users.Delete)
		users.POST("/:id/reset-password", d.Users.ResetPassword)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
