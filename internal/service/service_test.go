package service

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piscinemarket/scraper/internal/assets"
	"piscinemarket/scraper/internal/client"
	"piscinemarket/scraper/internal/config"
	"piscinemarket/scraper/internal/domain"
	"piscinemarket/scraper/internal/logging"
	"piscinemarket/scraper/internal/sitetest"
	"piscinemarket/scraper/internal/storage"
)

type harness struct {
	site    *sitetest.Site
	dir     string
	service *Service
	store   *storage.Store
}

func newHarness(t *testing.T, backend string, subcategories ...sitetest.Subcategory) *harness {
	t.Helper()

	site := sitetest.New(t, subcategories...)
	dir := t.TempDir()
	logger := logging.Discard()

	fetcher := client.NewFetcher(config.ScraperConfig{
		UserAgent:            "test",
		Timeout:              2 * time.Second,
		MaxRequestsPerSecond: 1000,
	}, logger.WithField("component", "fetcher"))

	market, err := client.NewMarketClient(fetcher, site.URL(), logger.WithField("component", "client"))
	require.NoError(t, err)

	store, err := storage.Open(context.Background(), config.StorageConfig{
		Backend:            backend,
		OutputDir:          dir,
		SubcategoriesTable: "subcategories",
		ProductsTable:      "products",
		SQLitePath:         "scraper.db",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := NewService(
		market,
		assets.NewDownloader(fetcher, dir, logger.WithField("component", "assets")),
		store.Subcategories,
		store.Products,
		site.CategoryURL(),
		Folders{
			SubcategoryImages: "subcategories_images",
			Thumbnails:        "subcategories_thumbnails",
			ProductImages:     "product_images",
		},
		logger.WithField("component", "service"),
	)

	return &harness{site: site, dir: dir, service: svc, store: store}
}

func (h *harness) subcategoryRows(t *testing.T) []storage.SubcategoryRow {
	t.Helper()
	rows, err := h.store.Subcategories.ReadAll(context.Background())
	require.NoError(t, err)
	return rows
}

func (h *harness) productRows(t *testing.T) []storage.ProductRow {
	t.Helper()
	rows, err := h.store.Products.ReadAll(context.Background())
	require.NoError(t, err)
	return rows
}

func pumps() sitetest.Subcategory {
	return sitetest.Subcategory{
		Slug: "pumps",
		Name: "Pumps",
		Products: []sitetest.Product{
			{Slug: "x", Name: "Pump X", PartNumber: "PX-1", Price: "100,00 €", Description: "First pump"},
			{Slug: "y", Name: "Pump Y", PartNumber: "PY-2", Price: "200,00 €", Description: "Second pump", DescriptionInDiv: true},
		},
	}
}

func robots() sitetest.Subcategory {
	return sitetest.Subcategory{
		Slug:        "robots",
		Name:        "Robots électriques",
		NoThumbnail: true,
		Products: []sitetest.Product{
			{Slug: "s300", Name: "Dolphin S300", PartNumber: "99996113", Price: "1 099,00 €", NoDescription: true, NoImage: true},
		},
	}
}

func TestRunPersistsCatalog(t *testing.T) {
	for _, backend := range []string{config.BackendCSV, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			h := newHarness(t, backend, pumps(), robots())

			stats, err := h.service.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, StateDone, h.service.State())
			assert.Equal(t, &RunStats{
				SubcategoriesFound:     2,
				SubcategoriesPersisted: 2,
				ProductsFetched:        3,
				ProductsPersisted:      3,
			}, stats)

			assert.Equal(t, []storage.SubcategoryRow{
				{
					Name:      "Pumps",
					Image:     "Pumps.gif",
					Thumbnail: "thumbnail_Pumps.jpg",
					Link:      h.site.URL() + sitetest.SubcategoryPath("pumps"),
				},
				{
					Name:  "Robots électriques",
					Image: "Robots_électriques.gif",
					Link:  h.site.URL() + sitetest.SubcategoryPath("robots"),
				},
			}, h.subcategoryRows(t))

			assert.Equal(t, []storage.ProductRow{
				{Name: "Pump X", PartNumber: "PX-1", Price: "100,00", Description: "First pump", Image: "Pump_X.png", Category: "Pumps"},
				{Name: "Pump Y", PartNumber: "PY-2", Price: "200,00", Description: "Second pump", Image: "Pump_Y.png", Category: "Pumps"},
				{Name: "Dolphin S300", PartNumber: "99996113", Price: "1", Category: "Robots électriques"},
			}, h.productRows(t))

			assert.FileExists(t, filepath.Join(h.dir, "subcategories_images", "Pumps.gif"))
			assert.FileExists(t, filepath.Join(h.dir, "subcategories_thumbnails", "thumbnail_Pumps.jpg"))
			assert.FileExists(t, filepath.Join(h.dir, "product_images", "Pump_X.png"))
			assert.NoFileExists(t, filepath.Join(h.dir, "product_images", "Dolphin_S300.png"))
		})
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	h := newHarness(t, config.BackendCSV, pumps(), robots())
	ctx := context.Background()

	_, err := h.service.Run(ctx)
	require.NoError(t, err)
	firstSubcategories := h.subcategoryRows(t)
	firstProducts := h.productRows(t)

	h.site.ResetHits()
	stats, err := h.service.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.SubcategoriesSkipped)
	assert.Zero(t, stats.ProductsFetched)
	assert.Equal(t, firstSubcategories, h.subcategoryRows(t))
	assert.Equal(t, firstProducts, h.productRows(t))

	// Skipped subcategories are not revisited.
	assert.Zero(t, h.site.Hits(sitetest.SubcategoryPath("pumps")))
	assert.Zero(t, h.site.Hits(sitetest.ProductPath("pumps", "x")))
}

func TestRunSkipsPersistedProductsButAddsNewOnes(t *testing.T) {
	h := newHarness(t, config.BackendCSV, pumps())
	ctx := context.Background()

	seeded := storage.ProductRow{Name: "Pump X", PartNumber: "PX-1", Price: "100,00", Category: "Pumps"}
	require.NoError(t, storage.AppendRecords(ctx, h.store.Products, []storage.ProductRow{seeded}))

	stats, err := h.service.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ProductsFetched)
	assert.Equal(t, 1, stats.ProductsSkipped)
	assert.Equal(t, 1, stats.ProductsPersisted)

	rows := h.productRows(t)
	require.Len(t, rows, 2)
	assert.Equal(t, seeded, rows[0])
	assert.Equal(t, "Pump Y", rows[1].Name)
	assert.Equal(t, "Pumps", rows[1].Category)
}

func TestRunProductSkipIsScopedToCategory(t *testing.T) {
	h := newHarness(t, config.BackendCSV, pumps())
	ctx := context.Background()

	require.NoError(t, storage.AppendRecords(ctx, h.store.Products, []storage.ProductRow{{Name: "Pump X", Category: "Filters"}}))

	stats, err := h.service.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.ProductsSkipped)
	assert.Len(t, h.productRows(t), 3)
}

func TestRunAbortsOnMissingPriceBeforeWriting(t *testing.T) {
	broken := pumps()
	broken.Products[1].NoPrice = true
	h := newHarness(t, config.BackendCSV, broken)

	_, err := h.service.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrParse)
	assert.Equal(t, StateAborted, h.service.State())

	assert.Empty(t, h.subcategoryRows(t))
	assert.Empty(t, h.productRows(t))
	assert.NoFileExists(t, filepath.Join(h.dir, "products.csv"))
}

func TestRunPersistsPerSubcategoryBatch(t *testing.T) {
	third := pumps()
	third.Slug = "pool-pumps"
	third.Name = "Pool pumps"
	third.Products = append(third.Products, sitetest.Product{Slug: "z", Name: "Pump Z", PartNumber: "PZ-3", Price: "300 €"})

	h := newHarness(t, config.BackendCSV, robots(), third)
	h.site.FailPath(sitetest.ProductPath("pool-pumps", "z"), http.StatusInternalServerError)

	stats, err := h.service.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, StateAborted, h.service.State())
	assert.Equal(t, 1, stats.SubcategoriesPersisted)

	// The earlier subcategory stays committed; the failing one leaves nothing.
	subcategories := h.subcategoryRows(t)
	require.Len(t, subcategories, 1)
	assert.Equal(t, "Robots électriques", subcategories[0].Name)

	products := h.productRows(t)
	require.Len(t, products, 1)
	assert.Equal(t, "Dolphin S300", products[0].Name)

	// Once the page is back, the next run resumes with the failed subcategory only.
	h.site.ClearFailure(sitetest.ProductPath("pool-pumps", "z"))
	h.site.ResetHits()

	stats, err = h.service.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SubcategoriesSkipped)
	assert.Equal(t, 3, stats.ProductsPersisted)
	assert.Zero(t, h.site.Hits(sitetest.SubcategoryPath("robots")))

	assert.Len(t, h.subcategoryRows(t), 2)
	products = h.productRows(t)
	require.Len(t, products, 4)
	assert.Equal(t, "Pump Z", products[3].Name)
	assert.Equal(t, "Pool pumps", products[3].Category)
}

func TestRunAbortsWhenCategoryPageFails(t *testing.T) {
	h := newHarness(t, config.BackendCSV, pumps())
	h.site.FailPath(sitetest.CategoryPath, http.StatusBadGateway)

	_, err := h.service.Run(context.Background())

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, http.StatusBadGateway, netErr.StatusCode)
	assert.Equal(t, StateAborted, h.service.State())
	assert.Empty(t, h.subcategoryRows(t))
}

func TestRunAbortsWhenImageDownloadFails(t *testing.T) {
	h := newHarness(t, config.BackendCSV, pumps())
	h.site.FailPath("/images/products/y.png", http.StatusNotFound)

	_, err := h.service.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrNetwork)
	assert.Empty(t, h.productRows(t))
}

func TestVisitSubcategoryThumbnail(t *testing.T) {
	tests := []struct {
		name string
		sub  sitetest.Subcategory
		want *string
	}{
		{"found", sitetest.Subcategory{Slug: "a", Name: "A"}, domain.StringPtr("thumbnail_A.jpg")},
		{"no container gives sentinel", sitetest.Subcategory{Slug: "b", Name: "B", NoThumbnail: true}, domain.StringPtr("")},
		{"empty container stays unset", sitetest.Subcategory{Slug: "c", Name: "C", EmptyThumbnail: true}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, config.BackendCSV, tt.sub)

			sub := domain.Subcategory{Name: tt.sub.Name, Link: h.site.URL() + sitetest.SubcategoryPath(tt.sub.Slug)}
			got, links, err := h.service.visitSubcategory(context.Background(), sub)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Thumbnail)
			assert.Empty(t, links)
		})
	}
}
