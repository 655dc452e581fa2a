package storage

import "piscinemarket/scraper/internal/domain"

// SubcategoryRow is the persisted shape of a domain.Subcategory.
type SubcategoryRow struct {
	Name      string `csv:"name"`
	Image     string `csv:"image"`
	Thumbnail string `csv:"thumbnail"`
	Link      string `csv:"link"`
}

func NewSubcategoryRow(s domain.Subcategory) SubcategoryRow {
	return SubcategoryRow{
		Name:      s.Name,
		Image:     domain.StringValue(s.Image),
		Thumbnail: domain.StringValue(s.Thumbnail),
		Link:      s.Link,
	}
}

func (SubcategoryRow) Columns() []string {
	return []string{"name", "image", "thumbnail", "link"}
}

func (r SubcategoryRow) Values() []string {
	return []string{r.Name, r.Image, r.Thumbnail, r.Link}
}

func subcategoryRowFromValues(v []string) SubcategoryRow {
	return SubcategoryRow{Name: v[0], Image: v[1], Thumbnail: v[2], Link: v[3]}
}

// ProductRow is the persisted shape of a domain.Product.
type ProductRow struct {
	Name        string `csv:"name"`
	PartNumber  string `csv:"part_number"`
	Price       string `csv:"price"`
	Description string `csv:"description"`
	Image       string `csv:"image"`
	Category    string `csv:"category"`
}

func NewProductRow(p domain.Product) ProductRow {
	return ProductRow{
		Name:        p.Name,
		PartNumber:  p.PartNumber,
		Price:       p.Price,
		Description: domain.StringValue(p.Description),
		Image:       domain.StringValue(p.Image),
		Category:    p.Category,
	}
}

func (ProductRow) Columns() []string {
	return []string{"name", "part_number", "price", "description", "image", "category"}
}

func (r ProductRow) Values() []string {
	return []string{r.Name, r.PartNumber, r.Price, r.Description, r.Image, r.Category}
}

func productRowFromValues(v []string) ProductRow {
	return ProductRow{Name: v[0], PartNumber: v[1], Price: v[2], Description: v[3], Image: v[4], Category: v[5]}
}
