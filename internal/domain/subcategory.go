package domain

// Subcategory is one entry of the category landing page.
type Subcategory struct {
	Name string `json:"name"` // Display name, unique across the catalog
	Link string `json:"link"` // Absolute URL of the subcategory detail page

	// Image is the downloaded category-page image filename.
	Image *string `json:"image,omitempty"`

	// Thumbnail is nil until the detail page has been visited. An empty
	// string means the page was checked and has no thumbnail container.
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// SubcategoryShell is what the category page tells us about a subcategory
// before any image has been downloaded.
type SubcategoryShell struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
	Link     string `json:"link"`
}

// ThumbnailState records what the detail page said about the thumbnail.
type ThumbnailState int

const (
	// ThumbnailAbsent means the page has no thumbnail container at all.
	ThumbnailAbsent ThumbnailState = iota
	// ThumbnailNoImage means the container exists but holds no image.
	ThumbnailNoImage
	// ThumbnailFound means ThumbnailURL is set.
	ThumbnailFound
)

// SubcategoryDetail is the result of parsing a subcategory detail page.
type SubcategoryDetail struct {
	Thumbnail    ThumbnailState `json:"thumbnail"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	ProductLinks []string       `json:"product_links"`
}
