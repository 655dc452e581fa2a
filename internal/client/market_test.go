package client

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piscinemarket/scraper/internal/domain"
	"piscinemarket/scraper/internal/logging"
	"piscinemarket/scraper/internal/sitetest"
)

func newTestMarketClient(t *testing.T, site *sitetest.Site) MarketClient {
	t.Helper()
	c, err := NewMarketClient(newTestFetcher(0), site.URL(), logging.Discard().WithField("component", "client"))
	require.NoError(t, err)
	return c
}

func TestMarketClientWalk(t *testing.T) {
	site := sitetest.New(t, sitetest.Subcategory{
		Slug: "electriques",
		Name: "Robots électriques",
		Products: []sitetest.Product{
			{Slug: "s300", Name: "Dolphin S300", PartNumber: "99996113", Price: "1 099,00 €", Description: "Robot"},
		},
	})
	c := newTestMarketClient(t, site)
	ctx := context.Background()

	shells, err := c.GetSubcategories(ctx, site.CategoryURL())
	require.NoError(t, err)
	require.Len(t, shells, 1)
	assert.Equal(t, "Robots électriques", shells[0].Name)
	assert.Equal(t, site.URL()+"/images/cat/electriques.gif", shells[0].ImageURL)

	detail, err := c.GetSubcategoryDetails(ctx, shells[0].Link)
	require.NoError(t, err)
	assert.Equal(t, domain.ThumbnailFound, detail.Thumbnail)
	require.Len(t, detail.ProductLinks, 1)

	page, err := c.GetProductDetails(ctx, detail.ProductLinks[0])
	require.NoError(t, err)
	assert.Equal(t, "Dolphin S300", page.Name)
	assert.Equal(t, "1", page.Price)
}

func TestMarketClientParseErrorCarriesURL(t *testing.T) {
	site := sitetest.New(t, sitetest.Subcategory{
		Slug:     "electriques",
		Name:     "Robots électriques",
		Products: []sitetest.Product{{Slug: "s300", Name: "Dolphin S300", PartNumber: "1", NoPrice: true}},
	})
	c := newTestMarketClient(t, site)

	productURL := site.URL() + sitetest.ProductPath("electriques", "s300")
	_, err := c.GetProductDetails(context.Background(), productURL)

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, productURL, parseErr.URL)
	assert.Equal(t, "price", parseErr.Field)
}

func TestMarketClientNetworkError(t *testing.T) {
	site := sitetest.New(t)
	site.FailPath(sitetest.CategoryPath, http.StatusServiceUnavailable)

	_, err := newTestMarketClient(t, site).GetSubcategories(context.Background(), site.CategoryURL())
	assert.ErrorIs(t, err, domain.ErrNetwork)
}
