// Package httpapi is the presentation-facing surface: runner login, per-view
// order fetches, lifecycle actions, earnings, and the live event stream.
package httpapi

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"runnerDispatch/internal/auth"
	"runnerDispatch/internal/config"
	"runnerDispatch/internal/feed"
	"runnerDispatch/internal/lifecycle"
	"runnerDispatch/internal/orders"
	"runnerDispatch/repository"
)

// Server holds the wired application services.
type Server struct {
	cfg      *config.Config
	runners  *repository.RunnerRepository
	earnings *repository.EarningsRepository
	fetcher  *orders.Fetcher
	control  *lifecycle.Controller
	broker   *feed.Broker
}

var pinRe = regexp.MustCompile(`^[0-9]{4,8}$`)

// New constructs the server and registers the custom request validators.
func New(cfg *config.Config, runners *repository.RunnerRepository, earnings *repository.EarningsRepository, fetcher *orders.Fetcher, control *lifecycle.Controller, broker *feed.Broker) *Server {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
			return pinRe.MatchString(fl.Field().String())
		})
	}
	return &Server{
		cfg:      cfg,
		runners:  runners,
		earnings: earnings,
		fetcher:  fetcher,
		control:  control,
		broker:   broker,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "runner-dispatch"})
	})
	r.POST("/api/login", s.login)

	api := r.Group("/api", auth.Middleware(s.cfg.Auth.JWTSecret))
	{
		api.GET("/orders", s.listOrders)
		api.GET("/orders/:id", s.getOrder)
		api.POST("/orders/:id/accept", s.acceptOrder)
		api.POST("/orders/:id/collect", s.verifyCollection)
		api.POST("/orders/:id/transit", s.markInTransit)
		api.POST("/orders/:id/deliver", s.verifyDeliveryPin)
		api.GET("/earnings", s.listEarnings)
		api.GET("/events", s.streamEvents)
	}
	return r
}

// Start runs the HTTP server on the configured address and returns a
// shutdown function.
func Start(s *Server) (func(context.Context) error, error) {
	addr := s.cfg.HTTP.Address
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errc := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	return func(ctx context.Context) error {
		select {
		case err := <-errc:
			return err
		default:
		}
		return srv.Shutdown(ctx)
	}, nil
}
