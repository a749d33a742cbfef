package domain

// CatalogSummary is the verification view of the products table after an import.
// Total is meaningful only when CountKnown is set.
type CatalogSummary struct {
	Total        int64     `json:"total"`
	CountKnown   bool      `json:"-"`
	Sample       []Product `json:"sample"`
	ProductTypes []string  `json:"product_types"`
}
