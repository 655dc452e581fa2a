package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"piscinemarket/scraper/internal/assets"
	"piscinemarket/scraper/internal/client"
	"piscinemarket/scraper/internal/domain"
	"piscinemarket/scraper/internal/ledger"
	"piscinemarket/scraper/internal/storage"
)

// State is the position of a run in the crawl state machine.
type State string

const (
	StateStart            State = "start"
	StateFetchingCategory State = "fetching_category"
	StatePerSubcategory   State = "per_subcategory"
	StateFetchDetail      State = "fetch_detail"
	StatePerProduct       State = "per_product"
	StatePersist          State = "persist"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

// Folders are the image folders, one per entity level.
type Folders struct {
	SubcategoryImages string
	Thumbnails        string
	ProductImages     string
}

// RunStats summarises one run.
type RunStats struct {
	SubcategoriesFound     int
	SubcategoriesSkipped   int
	SubcategoriesPersisted int
	ProductsFetched        int
	ProductsSkipped        int
	ProductsPersisted      int
}

type Service struct {
	client        client.MarketClient
	downloader    assets.Downloader
	subcategories storage.Table[storage.SubcategoryRow]
	products      storage.Table[storage.ProductRow]
	categoryURL   string
	folders       Folders
	log           *logrus.Entry

	state State
}

func NewService(
	client client.MarketClient,
	downloader assets.Downloader,
	subcategories storage.Table[storage.SubcategoryRow],
	products storage.Table[storage.ProductRow],
	categoryURL string,
	folders Folders,
	logger *logrus.Entry,
) *Service {
	return &Service{
		client:        client,
		downloader:    downloader,
		subcategories: subcategories,
		products:      products,
		categoryURL:   categoryURL,
		folders:       folders,
		log:           logger,
		state:         StateStart,
	}
}

// State returns where the last run stopped.
func (s *Service) State() State {
	return s.state
}

// Run walks the category page, then every subcategory not yet persisted and
// its products. The first error aborts the run; whatever was persisted before
// it stays on disk.
func (s *Service) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{}
	s.state = StateStart

	s.transition(StateFetchingCategory)
	subcategories, err := s.fetchSubcategories(ctx)
	if err != nil {
		return stats, s.abort(err)
	}
	stats.SubcategoriesFound = len(subcategories)

	processed, err := ledger.ForSubcategories(ctx, s.subcategories)
	if err != nil {
		return stats, s.abort(err)
	}
	s.log.Infof("📒 %d subcategories already persisted", processed.Len())

	for _, subcategory := range subcategories {
		s.transition(StatePerSubcategory)

		if processed.AlreadyProcessed(subcategory.Name) {
			s.log.Infof("⏭️ Subcategory %s already processed. Skipping...", subcategory.Name)
			stats.SubcategoriesSkipped++
			continue
		}

		if err := s.processSubcategory(ctx, subcategory, stats); err != nil {
			return stats, s.abort(fmt.Errorf("subcategory %s: %w", subcategory.Name, err))
		}
	}

	s.transition(StateDone)
	s.log.Infof("✅ Run finished: %d subcategories (%d skipped, %d saved), %d products fetched (%d skipped, %d saved)",
		stats.SubcategoriesFound, stats.SubcategoriesSkipped, stats.SubcategoriesPersisted,
		stats.ProductsFetched, stats.ProductsSkipped, stats.ProductsPersisted)

	return stats, nil
}

func (s *Service) fetchSubcategories(ctx context.Context) ([]domain.Subcategory, error) {
	shells, err := s.client.GetSubcategories(ctx, s.categoryURL)
	if err != nil {
		return nil, err
	}

	subcategories := make([]domain.Subcategory, 0, len(shells))
	for _, shell := range shells {
		image, err := s.downloader.Download(ctx, shell.ImageURL, s.folders.SubcategoryImages, shell.Name, ".gif")
		if err != nil {
			return nil, err
		}

		subcategories = append(subcategories, domain.Subcategory{
			Name:  shell.Name,
			Link:  shell.Link,
			Image: domain.StringPtr(image),
		})
	}

	return subcategories, nil
}

func (s *Service) processSubcategory(ctx context.Context, subcategory domain.Subcategory, stats *RunStats) error {
	s.transition(StateFetchDetail)
	subcategory, productLinks, err := s.visitSubcategory(ctx, subcategory)
	if err != nil {
		return err
	}

	s.transition(StatePerProduct)
	// Read fresh for every subcategory.
	seen, err := ledger.ForProducts(ctx, s.products, subcategory.Name)
	if err != nil {
		return err
	}

	products := make([]domain.Product, 0, len(productLinks))
	for _, link := range productLinks {
		// The name is only known once the page is fetched, so the skip check
		// has to come after it.
		product, err := s.fetchProduct(ctx, link, subcategory.Name)
		if err != nil {
			return err
		}
		stats.ProductsFetched++

		if seen.AlreadyProcessed(product.Name) {
			s.log.Infof("⏭️ Product %s in subcategory %s already processed. Skipping...", product.Name, subcategory.Name)
			stats.ProductsSkipped++
			continue
		}
		products = append(products, *product)
	}

	s.transition(StatePersist)
	if err := s.persist(ctx, subcategory, products); err != nil {
		return err
	}
	stats.SubcategoriesPersisted++
	stats.ProductsPersisted += len(products)

	return nil
}

// visitSubcategory fetches the detail page, fills in the thumbnail and
// returns the product links in page order.
func (s *Service) visitSubcategory(ctx context.Context, subcategory domain.Subcategory) (domain.Subcategory, []string, error) {
	s.log.Infof("Fetching details for subcategory: %s from %s", subcategory.Name, subcategory.Link)

	detail, err := s.client.GetSubcategoryDetails(ctx, subcategory.Link)
	if err != nil {
		return subcategory, nil, err
	}

	switch detail.Thumbnail {
	case domain.ThumbnailFound:
		name, err := s.downloader.Download(ctx, detail.ThumbnailURL, s.folders.Thumbnails, "thumbnail_"+subcategory.Name, "")
		if err != nil {
			return subcategory, nil, err
		}
		subcategory.Thumbnail = domain.StringPtr(name)
		s.log.Infof("Found thumbnail for subcategory: %s with URL: %s", subcategory.Name, detail.ThumbnailURL)
	case domain.ThumbnailAbsent:
		s.log.Warnf("⚠️ No thumbnail found for subcategory: %s", subcategory.Name)
		subcategory.Thumbnail = domain.StringPtr("")
	case domain.ThumbnailNoImage:
		s.log.Debugf("Thumbnail container for %s holds no image", subcategory.Name)
	}

	s.log.Infof("Found %d products for subcategory: %s", len(detail.ProductLinks), subcategory.Name)
	return subcategory, detail.ProductLinks, nil
}

func (s *Service) fetchProduct(ctx context.Context, link, category string) (*domain.Product, error) {
	page, err := s.client.GetProductDetails(ctx, link)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        page.Name,
		PartNumber:  page.PartNumber,
		Price:       page.Price,
		Description: page.Description,
		Category:    category,
	}

	if page.ImageURL != "" {
		name, err := s.downloader.Download(ctx, page.ImageURL, s.folders.ProductImages, page.Name, "")
		if err != nil {
			return nil, err
		}
		product.Image = domain.StringPtr(name)
	}

	s.log.Infof("Product details - Name: %s, Part Number: %s, Price: %s, Description: %s",
		product.Name, product.PartNumber, product.Price, domain.StringValue(product.Description))
	return product, nil
}

func (s *Service) persist(ctx context.Context, subcategory domain.Subcategory, products []domain.Product) error {
	subcategoryRows := []storage.SubcategoryRow{storage.NewSubcategoryRow(subcategory)}
	if err := storage.AppendRecords(ctx, s.subcategories, subcategoryRows); err != nil {
		return err
	}
	s.log.Infof("💾 Saved subcategory %s to %s", subcategory.Name, s.subcategories.Name())

	productRows := make([]storage.ProductRow, 0, len(products))
	for _, product := range products {
		productRows = append(productRows, storage.NewProductRow(product))
	}
	if err := storage.AppendRecords(ctx, s.products, productRows); err != nil {
		return err
	}
	s.log.Infof("💾 Saved %d products for subcategory %s to %s", len(productRows), subcategory.Name, s.products.Name())

	return nil
}

func (s *Service) transition(next State) {
	s.log.WithField("from", s.state).Debugf("state -> %s", next)
	s.state = next
}

func (s *Service) abort(err error) error {
	s.transition(StateAborted)
	s.log.Errorf("❌ Request failed. Stopping the scraper: %v", err)
	return err
}
