package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

var _ domain.ProductUseCase = (*productUseCase)(nil)

type productUseCase struct {
	productRepo  domain.ProductRepository
	categoryRepo domain.CategoryRepository
	cache        domain.ProductCache
	images       *imageAttacher
	log          *logrus.Logger
}

func NewProductUseCase(pRepo domain.ProductRepository, cRepo domain.CategoryRepository, cache domain.ProductCache, store domain.ImageStore, logger *logrus.Logger) domain.ProductUseCase {
	return &productUseCase{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		cache:        cache,
		images:       newImageAttacher(store, domain.ImageFolderProducts, logger),
		log:          logger,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input domain.ProductInput, image *domain.ImageUpload) (*domain.ProductMutation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		uc.log.Warn("Use Case: Attempted to create product with empty name")
		return nil, domain.ValidationError("product name cannot be empty")
	}
	if !input.Price.IsPositive() {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with invalid price: %s", name, input.Price)
		return nil, domain.ValidationError("product price must be positive")
	}
	if input.Stock < 0 {
		uc.log.Warnf("Use Case: Attempted to create product '%s' with negative stock: %d", name, input.Stock)
		return nil, domain.ValidationError("product stock cannot be negative")
	}
	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.IsValid() {
		return nil, domain.ValidationError("invalid status: %s", status)
	}
	if input.CategoryID <= 0 {
		return nil, domain.ValidationError("id_category is required")
	}
	if _, err := uc.categoryRepo.GetCategoryByID(ctx, input.CategoryID); err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found during product creation: %v", input.CategoryID, err)
		return nil, err
	}

	product := &domain.Product{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Price:       input.Price,
		Stock:       input.Stock,
		CategoryID:  input.CategoryID,
		Status:      status,
	}

	stored, err := uc.images.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		product.ImageURL = stored.URL
		product.ImagePublicID = stored.PublicID
	}

	uc.log.Infof("Use Case: Attempting to create product '%s'", name)
	created, err := uc.productRepo.CreateProduct(ctx, product)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create product '%s': %v", name, err)
		uc.images.discard(ctx, stored)
		return nil, err
	}

	uc.log.Infof("Use Case: Product '%s' created successfully with ID %d", created.Name, created.ID)
	return &domain.ProductMutation{Product: created}, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, domain.ValidationError("invalid product ID")
	}

	cached, err := uc.cache.GetProduct(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Cache read failed for product %d: %v", id, err)
	} else if cached != nil {
		uc.log.Debugf("Use Case: Product %d served from cache", id)
		return cached, nil
	}

	product, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	if err := uc.cache.SetProduct(ctx, product); err != nil {
		uc.log.Warnf("Use Case: Cache write failed for product %d: %v", id, err)
	}
	return product, nil
}

func (uc *productUseCase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, domain.ValidationError("invalid status filter: %s", *filter.Status)
	}
	if filter.CategoryID != nil && *filter.CategoryID <= 0 {
		return nil, domain.ValidationError("invalid category ID filter")
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return uc.productRepo.ListProducts(ctx, filter)
}

func (uc *productUseCase) ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, error) {
	if categoryID <= 0 {
		return nil, domain.ValidationError("invalid category ID")
	}
	active := domain.StatusActive
	return uc.productRepo.ListProducts(ctx, domain.ProductFilter{CategoryID: &categoryID, Status: &active})
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id int64, update domain.ProductUpdate, image *domain.ImageUpload) (*domain.ProductMutation, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted update with invalid product ID: %d", id)
		return nil, domain.ValidationError("invalid product ID for update")
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.ValidationError("product name cannot be empty if provided for update")
		}
		update.Name = &name
	}
	if update.Price != nil && !update.Price.IsPositive() {
		return nil, domain.ValidationError("product price must be positive if provided for update")
	}
	if update.Stock != nil && *update.Stock < 0 {
		return nil, domain.ValidationError("product stock cannot be negative")
	}
	if update.Status != nil && !update.Status.IsValid() {
		return nil, domain.ValidationError("invalid status: %s", *update.Status)
	}

	current, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Product ID %d not found for update: %v", id, err)
		return nil, err
	}
	if update.CategoryID != nil && *update.CategoryID != current.CategoryID {
		if _, err := uc.categoryRepo.GetCategoryByID(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
	}

	stored, err := uc.images.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	update.Image = stored

	updated, err := uc.productRepo.UpdateProduct(ctx, id, update)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update product ID %d: %v", id, err)
		uc.images.discard(ctx, stored)
		return nil, err
	}
	uc.invalidate(ctx, id)

	result := &domain.ProductMutation{Product: updated}
	if stored != nil {
		result.ImageCleanup = uc.images.replace(ctx, current.ImagePublicID)
	}

	uc.log.Infof("Use Case: Product ID %d updated successfully", id)
	return result, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id int64) (*domain.ImageCleanup, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid product ID for delete")
	}

	current, err := uc.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.productRepo.DeleteProduct(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete product ID %d: %v", id, err)
		return nil, err
	}
	uc.invalidate(ctx, id)

	cleanup := uc.images.replace(ctx, current.ImagePublicID)
	uc.log.Infof("Use Case: Product ID %d deleted successfully", id)
	return &cleanup, nil
}

func (uc *productUseCase) invalidate(ctx context.Context, ids ...int64) {
	if err := uc.cache.InvalidateProducts(ctx, ids...); err != nil {
		uc.log.Warnf("Use Case: Cache invalidation failed for products %v: %v", ids, err)
	}
}
