package httpserver

import (
	"errors"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"catalog-migrate/internal/domain"
)

const maxSampleSize = 100

func envCheckHandler(status func() map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if status == nil {
			c.JSON(http.StatusOK, envCheckResponse{Variables: []envVariable{}})
			return
		}
		vars := status()
		keys := make([]string, 0, len(vars))
		for k := range vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		resp := envCheckResponse{Variables: make([]envVariable, 0, len(keys)), Ready: true}
		for _, k := range keys {
			resp.Variables = append(resp.Variables, envVariable{Name: k, Configured: vars[k]})
			if !vars[k] {
				resp.Ready = false
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func summaryHandler(svc SummaryService, rows RowGauge, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sample := 0
		if raw := c.Query("sample"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > maxSampleSize {
				writeError(c, http.StatusBadRequest, "InvalidInput", "sample must be between 1 and 100")
				return
			}
			sample = n
		}

		sum, err := svc.Summary(c.Request.Context(), sample)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			if rows != nil {
				rows.SetProductRows(0)
			}
			writeError(c, http.StatusNotFound, "ResourceNotFound", "the products table is empty")
			return
		case sum == nil:
			logger.Printf("products summary: %v", err)
			writeError(c, http.StatusBadGateway, "DestinationError", "the destination could not be read")
			return
		case err != nil:
			logger.Printf("products summary: partial: %v", err)
		}

		if rows != nil && sum.CountKnown {
			rows.SetProductRows(sum.Total)
		}
		c.JSON(http.StatusOK, toSummaryResponse(*sum, err != nil))
	}
}
