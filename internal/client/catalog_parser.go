package client

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"piscinemarket/scraper/internal/domain"
)

// ParseCategoryPage returns one shell per subcategory block, in document order.
func ParseCategoryPage(doc *goquery.Document, base *url.URL) ([]domain.SubcategoryShell, error) {
	shells := make([]domain.SubcategoryShell, 0)

	var parseErr error
	doc.Find("div.categorie").EachWithBreak(func(i int, div *goquery.Selection) bool {
		shell, err := parseCategoryBlock(div, base)
		if err != nil {
			parseErr = fmt.Errorf("subcategory block %d: %w", i+1, err)
			return false
		}
		shells = append(shells, shell)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return shells, nil
}

func parseCategoryBlock(div *goquery.Selection, base *url.URL) (domain.SubcategoryShell, error) {
	var shell domain.SubcategoryShell

	link := div.Find("a").First()
	if link.Length() == 0 {
		return shell, missing(domain.PageCategory, "link")
	}

	heading := link.Find("h4").First()
	name := strings.TrimSpace(heading.Text())
	if heading.Length() == 0 || name == "" {
		return shell, missing(domain.PageCategory, "name heading")
	}

	src, ok := link.Find("img").First().Attr("src")
	if !ok {
		return shell, missing(domain.PageCategory, "image for "+name)
	}

	href, ok := link.Attr("href")
	if !ok {
		return shell, missing(domain.PageCategory, "href for "+name)
	}

	imageURL, err := resolve(base, src)
	if err != nil {
		return shell, err
	}
	detailURL, err := resolve(base, href)
	if err != nil {
		return shell, err
	}

	shell.Name = name
	shell.ImageURL = imageURL
	shell.Link = detailURL
	return shell, nil
}

// ParseSubcategoryPage extracts the thumbnail and the product links of a
// subcategory detail page. A missing thumbnail container is not an error.
func ParseSubcategoryPage(doc *goquery.Document, base *url.URL) (*domain.SubcategoryDetail, error) {
	detail := &domain.SubcategoryDetail{
		Thumbnail:    domain.ThumbnailAbsent,
		ProductLinks: make([]string, 0),
	}

	if container := doc.Find("div.row.image").First(); container.Length() > 0 {
		detail.Thumbnail = domain.ThumbnailNoImage
		if src, ok := container.Find("img").First().Attr("src"); ok {
			thumbnailURL, err := resolve(base, src)
			if err != nil {
				return nil, err
			}
			detail.Thumbnail = domain.ThumbnailFound
			detail.ThumbnailURL = thumbnailURL
		}
	}

	var parseErr error
	doc.Find("div.col-sm-7.col-xs-12").EachWithBreak(func(i int, div *goquery.Selection) bool {
		href, ok := div.Find("a").First().Attr("href")
		if !ok {
			parseErr = missing(domain.PageSubcategory, fmt.Sprintf("product link %d", i+1))
			return false
		}
		productURL, err := resolve(base, href)
		if err != nil {
			parseErr = err
			return false
		}
		detail.ProductLinks = append(detail.ProductLinks, productURL)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return detail, nil
}

// ParseProductPage extracts a product detail page. Name, part number and price
// are required; description and image are optional.
func ParseProductPage(doc *goquery.Document, base *url.URL) (*domain.ProductPage, error) {
	page := &domain.ProductPage{}

	title := doc.Find("h1.titre-produit").First()
	if title.Length() == 0 {
		return nil, missing(domain.PageProduct, "name")
	}
	page.Name = strings.TrimSpace(title.Text())

	// Part number sits in the second cell of the first details row.
	cell := doc.Find("tr.first").First().Find("td").Eq(1)
	if cell.Length() == 0 {
		return nil, missing(domain.PageProduct, "part number")
	}
	page.PartNumber = strings.TrimSpace(cell.Text())

	priceFields := strings.Fields(doc.Find("span.prix").First().Text())
	if len(priceFields) == 0 {
		return nil, missing(domain.PageProduct, "price")
	}
	page.Price = priceFields[0]

	page.Description = extractDescription(doc)

	if src, ok := doc.Find("div.col-sm-5.photos").First().Find("img").First().Attr("src"); ok {
		imageURL, err := resolve(base, src)
		if err != nil {
			return nil, err
		}
		page.ImageURL = imageURL
	}

	return page, nil
}

func extractDescription(doc *goquery.Document) *string {
	container := doc.Find("div.description").First()
	if container.Length() == 0 {
		return nil
	}

	if p := container.Find("p").First(); p.Length() > 0 {
		return domain.StringPtr(strings.TrimSpace(p.Text()))
	}
	if inner := container.Find("div").First(); inner.Length() > 0 {
		return domain.StringPtr(strings.TrimSpace(inner.Text()))
	}
	return domain.StringPtr(strings.TrimSpace(container.Text()))
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	return base.ResolveReference(u).String(), nil
}

func missing(page domain.PageType, field string) error {
	return &domain.ParseError{Page: page, Field: field}
}
