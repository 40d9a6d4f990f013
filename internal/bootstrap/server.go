package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/confrent/roombooking/api"
	"github.com/confrent/roombooking/config"
)

// Run starts the HTTP gateway and blocks until ctx is canceled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, session api.BookingSession) error {
	engine := gin.New()
	engine.Use(gin.Recovery())

	api.NewBuildingHandler(session).Register(engine.Group("/buildings"))
	api.NewBookingHandler(session).Register(engine.Group("/bookings"))

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
