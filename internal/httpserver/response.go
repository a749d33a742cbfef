package httpserver

import (
	"github.com/gin-gonic/gin"

	"catalog-migrate/internal/domain"
)

type summaryResponse struct {
	// Total is omitted when the count could not be read.
	Total        *int64            `json:"total,omitempty"`
	Sample       []productResponse `json:"sample"`
	ProductTypes []string          `json:"productTypes"`
	// Partial is set when part of the summary could not be read.
	Partial bool `json:"partial,omitempty"`
}

type productResponse struct {
	ID             string     `json:"id,omitempty"`
	ExternalID     string     `json:"externalId"`
	UPCCode        *int64     `json:"upcCode"`
	StyleNumber    string     `json:"styleNumber"`
	DisplayName    string     `json:"displayName"`
	StyleName      string     `json:"styleName"`
	LaunchSeason   string     `json:"launchSeason,omitempty"`
	BaseColor      *string    `json:"baseColor,omitempty"`
	MarketingColor *string    `json:"marketingColor,omitempty"`
	ProductType    string     `json:"productType,omitempty"`
	MSRP           priceValue `json:"msrp"`
	Wholesale      float64    `json:"wholesalePrice"`
}

type priceValue struct {
	Type           string `json:"type"`
	CurrencyCode   string `json:"currencyCode"`
	CentAmount     int64  `json:"centAmount"`
	FractionDigits int    `json:"fractionDigits"`
}

type envCheckResponse struct {
	Variables []envVariable `json:"variables"`
	Ready     bool          `json:"ready"`
}

type envVariable struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

type errorResponse struct {
	StatusCode int           `json:"statusCode"`
	Message    string        `json:"message"`
	Errors     []errorDetail `json:"errors"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{
		StatusCode: status,
		Message:    msg,
		Errors:     []errorDetail{{Code: code, Message: msg}},
	})
}

func toSummaryResponse(sum domain.CatalogSummary, partial bool) summaryResponse {
	sample := make([]productResponse, 0, len(sum.Sample))
	for _, p := range sum.Sample {
		sample = append(sample, toProductResponse(p))
	}
	types := sum.ProductTypes
	if types == nil {
		types = []string{}
	}
	var total *int64
	if sum.CountKnown {
		total = &sum.Total
	}
	return summaryResponse{
		Total:        total,
		Sample:       sample,
		ProductTypes: types,
		Partial:      partial,
	}
}

// MSRP is stored in USD cents.
func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:             p.ID,
		ExternalID:     p.ExternalID,
		UPCCode:        p.UPCCode,
		StyleNumber:    p.StyleNumber,
		DisplayName:    p.DisplayName,
		StyleName:      p.StyleName,
		LaunchSeason:   p.LaunchSeason,
		BaseColor:      p.BaseColor,
		MarketingColor: p.MarketingColor,
		ProductType:    p.ProductType,
		MSRP: priceValue{
			Type:           "centPrecision",
			CurrencyCode:   "USD",
			CentAmount:     p.MSRPCents,
			FractionDigits: 2,
		},
		Wholesale: p.WholesalePrice,
	}
}
