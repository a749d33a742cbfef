package seed

import (
	"context"
	"fmt"

	"catalog-migrate/internal/coerce"
	"catalog-migrate/internal/domain"
)

// Destination is the part of a products repository the seeder needs.
type Destination interface {
	Count(ctx context.Context) (int64, error)
	InsertBatch(ctx context.Context, products []domain.Product) (int64, error)
}

var demoRows = []coerce.Row{
	{
		coerce.ColExternalID:     "DEMO-0001",
		coerce.ColUPCCode:        "810012340011",
		coerce.ColStyleNumber:    "DM100",
		coerce.ColDisplayName:    "Demo Trail Runner",
		coerce.ColStyleName:      "Trail Runner",
		coerce.ColLaunchSeason:   "SP25",
		coerce.ColBaseColor:      "Black",
		coerce.ColMarketingColor: "Midnight",
		coerce.ColProductType:    "Footwear",
		coerce.ColMSRP:           "129.99",
		coerce.ColWholesale:      "64.5",
	},
	{
		coerce.ColExternalID:   "DEMO-0002",
		coerce.ColStyleNumber:  "DM200",
		coerce.ColDisplayName:  "Demo Men's Tee",
		coerce.ColStyleName:    "Everyday Tee",
		coerce.ColLaunchSeason: "SP25",
		coerce.ColProductType:  "Apparel",
		coerce.ColMSRP:         "24.99",
		coerce.ColWholesale:    "11",
	},
	{
		coerce.ColExternalID:  "DEMO-0003",
		coerce.ColStyleNumber: "DM300",
		coerce.ColDisplayName: "Demo Cap",
		coerce.ColStyleName:   "Logo Cap",
		coerce.ColProductType: "Accessories",
	},
}

// Products returns the demo catalog, coerced the same way imported rows are.
func Products() ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(demoRows))
	for _, raw := range demoRows {
		p, issues := coerce.Product(raw)
		if len(issues) > 0 {
			return nil, fmt.Errorf("demo row %s: %v", raw[coerce.ColExternalID], issues[0])
		}
		if err := coerce.Validate(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Apply inserts the demo catalog for manual testing. A destination that
// already holds rows is left untouched, so reruns are harmless.
func Apply(ctx context.Context, dst Destination) (int64, error) {
	n, err := dst.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	products, err := Products()
	if err != nil {
		return 0, err
	}
	inserted, err := dst.InsertBatch(ctx, products)
	if err != nil {
		return 0, fmt.Errorf("insert demo products: %w", err)
	}
	return inserted, nil
}
