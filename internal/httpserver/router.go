package httpserver

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"catalog-migrate/internal/domain"
)

// SummaryService reads the verification view of the products table.
type SummaryService interface {
	Summary(ctx context.Context, sampleSize int) (*domain.CatalogSummary, error)
}

// ReadyFunc reports whether the destination can be reached.
type ReadyFunc func(ctx context.Context) error

// RowGauge records the last observed products row count.
type RowGauge interface {
	SetProductRows(n int64)
}

// Deps holds the collaborators of the status routes. Nil fields disable the
// matching route or feature.
type Deps struct {
	Summary SummaryService
	Ready   ReadyFunc
	// EnvStatus reports which credentials are configured. Values are never
	// exposed, only their presence.
	EnvStatus   func() map[string]bool
	Rows        RowGauge
	Metrics     http.Handler
	CORSOrigins []string
}

// buildRouter wires routes for the status API.
func buildRouter(logger *log.Logger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if len(deps.CORSOrigins) > 0 {
		corsCfg := cors.Config{
			AllowOrigins: deps.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
			MaxAge:       12 * time.Hour,
		}
		if err := corsCfg.Validate(); err != nil {
			return nil, fmt.Errorf("cors: %w", err)
		}
		router.Use(cors.New(corsCfg))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))
	router.GET("/env-check", envCheckHandler(deps.EnvStatus))
	if deps.Summary != nil {
		router.GET("/products/summary", summaryHandler(deps.Summary, deps.Rows, logger))
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	return router, nil
}
