package domain

// Product is a single product record scraped from its detail page.
type Product struct {
	Name        string  `json:"name"`
	PartNumber  string  `json:"part_number"`
	Price       string  `json:"price"` // First token of the price text, currency stripped
	Description *string `json:"description,omitempty"`
	Image       *string `json:"image,omitempty"`
	Category    string  `json:"category"` // Parent subcategory name
}

// ProductPage is the parsed content of a product detail page, before the
// product image is downloaded.
type ProductPage struct {
	Name        string
	PartNumber  string
	Price       string
	Description *string
	ImageURL    string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// StringValue returns the pointed-to string, or "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
