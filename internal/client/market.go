package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"piscinemarket/scraper/internal/domain"
)

// MarketClient fetches and parses the three page types of the catalog.
type MarketClient interface {
	GetSubcategories(ctx context.Context, categoryURL string) ([]domain.SubcategoryShell, error)
	GetSubcategoryDetails(ctx context.Context, subcategoryURL string) (*domain.SubcategoryDetail, error)
	GetProductDetails(ctx context.Context, productURL string) (*domain.ProductPage, error)
}

type marketClient struct {
	fetcher Fetcher
	baseURL *url.URL
	log     *logrus.Entry
}

func NewMarketClient(fetcher Fetcher, baseURL string, logger *logrus.Entry) (MarketClient, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	return &marketClient{
		fetcher: fetcher,
		baseURL: base,
		log:     logger,
	}, nil
}

func (c *marketClient) GetSubcategories(ctx context.Context, categoryURL string) ([]domain.SubcategoryShell, error) {
	c.log.Infof("Fetching subcategories from %s", categoryURL)

	doc, err := c.fetchDocument(ctx, categoryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch category page: %w", err)
	}

	shells, err := ParseCategoryPage(doc, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse category page: %w", withURL(err, categoryURL))
	}

	for _, shell := range shells {
		c.log.Infof("Found subcategory: %s with image URL: %s", shell.Name, shell.ImageURL)
	}
	return shells, nil
}

func (c *marketClient) GetSubcategoryDetails(ctx context.Context, subcategoryURL string) (*domain.SubcategoryDetail, error) {
	doc, err := c.fetchDocument(ctx, subcategoryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subcategory page: %w", err)
	}

	detail, err := ParseSubcategoryPage(doc, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subcategory page: %w", withURL(err, subcategoryURL))
	}

	c.log.Debugf("Parsed subcategory page %s: %d product links", subcategoryURL, len(detail.ProductLinks))
	return detail, nil
}

func (c *marketClient) GetProductDetails(ctx context.Context, productURL string) (*domain.ProductPage, error) {
	c.log.Infof("Fetching product details from %s", productURL)

	doc, err := c.fetchDocument(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product page: %w", err)
	}

	page, err := ParseProductPage(doc, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse product page: %w", withURL(err, productURL))
	}

	return page, nil
}

func (c *marketClient) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	html, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// withURL records which page a parse error came from.
func withURL(err error, pageURL string) error {
	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) && parseErr.URL == "" {
		parseErr.URL = pageURL
	}
	return err
}
