package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gartanggali/resort-backend/api"
	"github.com/gartanggali/resort-backend/config"
	"github.com/gartanggali/resort-backend/internal/domain"
	"github.com/gartanggali/resort-backend/internal/service/user"
	"github.com/gartanggali/resort-backend/internal/token"
)

const shutdownTimeout = 5 * time.Second

type Handlers struct {
	Auth     *api.AuthHandler
	Users    *api.UserHandler
	Bookings *api.BookingHandler
	Visits   *api.VisitHandler
}

// NewRouter assembles the gin engine with all routes and shared middleware.
func NewRouter(cfg *config.Config, logger *zap.Logger, codec *token.Codec, userSvc user.UserUseCase, handlers Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(logger))

	if len(cfg.HTTP.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.HTTP.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
		}))
	}

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is running")
	})

	authRequired := api.AuthRequired(codec)
	adminOnly := api.RoleRequired(userSvc, domain.RoleAdmin, domain.RoleSuperAdmin)
	superAdminOnly := api.RoleRequired(userSvc, domain.RoleSuperAdmin)

	v1 := router.Group("/api/v1")
	handlers.Auth.Register(v1.Group("/auth"), authRequired, superAdminOnly)
	handlers.Users.Register(v1.Group("/user"), authRequired)
	handlers.Bookings.Register(v1.Group("/booking"), authRequired, adminOnly)
	handlers.Visits.Register(router.Group("/api/visits"))

	return router
}

// Run serves the router and blocks until the context is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger, handler http.Handler) error {
	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	logger.Info("http server listening", zap.String("address", cfg.HTTP.Address))

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		logger.Info("http server stopped")
		return nil
	}
}
