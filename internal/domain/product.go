package domain

import "time"

// Product is one catalog row as persisted in the products table.
type Product struct {
	ID             string    `json:"id,omitempty"`
	ExternalID     string    `json:"external_id"`
	UPCCode        *int64    `json:"upc_code"`
	StyleNumber    string    `json:"style_number"`
	DisplayName    string    `json:"display_name"`
	StyleName      string    `json:"style_name"`
	LaunchSeason   string    `json:"launch_season"`
	BaseColor      *string   `json:"base_color"`
	MarketingColor *string   `json:"marketing_color"`
	ProductType    string    `json:"product_type"`
	MSRPCents      int64     `json:"msrp"`
	WholesalePrice float64   `json:"wholesale_price"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// Columns lists the products table columns written by every import path, in order.
var Columns = []string{
	"external_id",
	"upc_code",
	"style_number",
	"display_name",
	"style_name",
	"launch_season",
	"base_color",
	"marketing_color",
	"product_type",
	"msrp",
	"wholesale_price",
}

// Values returns the row in Columns order. Nullable fields are nil when absent.
func (p Product) Values() []any {
	var upc, base, marketing any
	if p.UPCCode != nil {
		upc = *p.UPCCode
	}
	if p.BaseColor != nil {
		base = *p.BaseColor
	}
	if p.MarketingColor != nil {
		marketing = *p.MarketingColor
	}
	return []any{
		p.ExternalID,
		upc,
		p.StyleNumber,
		p.DisplayName,
		p.StyleName,
		p.LaunchSeason,
		base,
		marketing,
		p.ProductType,
		p.MSRPCents,
		p.WholesalePrice,
	}
}

// MSRPDollars converts the stored cents back to dollars for display.
func (p Product) MSRPDollars() float64 {
	return float64(p.MSRPCents) / 100
}
