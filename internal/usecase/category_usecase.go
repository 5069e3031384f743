package usecase

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

var _ domain.CategoryUseCase = (*categoryUseCase)(nil)

type categoryUseCase struct {
	categoryRepo domain.CategoryRepository
	images       *imageAttacher
	log          *logrus.Logger
}

func NewCategoryUseCase(repo domain.CategoryRepository, store domain.ImageStore, logger *logrus.Logger) domain.CategoryUseCase {
	return &categoryUseCase{
		categoryRepo: repo,
		images:       newImageAttacher(store, domain.ImageFolderCategories, logger),
		log:          logger,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input domain.CategoryInput, image *domain.ImageUpload) (*domain.CategoryMutation, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		uc.log.Warn("Use Case: Attempted to create category with empty name")
		return nil, domain.ValidationError("category name cannot be empty")
	}
	status := input.Status
	if status == "" {
		status = domain.StatusActive
	}
	if !status.IsValid() {
		return nil, domain.ValidationError("invalid status: %s", status)
	}

	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		Status:      status,
	}

	stored, err := uc.images.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		category.ImageURL = stored.URL
		category.ImagePublicID = stored.PublicID
	}

	uc.log.Infof("Use Case: Attempting to create category '%s'", name)
	created, err := uc.categoryRepo.CreateCategory(ctx, category)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to create category '%s': %v", name, err)
		uc.images.discard(ctx, stored)
		return nil, err
	}

	uc.log.Infof("Use Case: Category '%s' created successfully with ID %d", created.Name, created.ID)
	return &domain.CategoryMutation{Category: created}, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid category ID")
	}
	return uc.categoryRepo.GetCategoryByID(ctx, id)
}

func (uc *categoryUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return uc.categoryRepo.ListCategories(ctx)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, id int64, update domain.CategoryUpdate, image *domain.ImageUpload) (*domain.CategoryMutation, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid category ID for update")
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, domain.ValidationError("category name cannot be empty if provided for update")
		}
		update.Name = &name
	}
	if update.Status != nil && !update.Status.IsValid() {
		return nil, domain.ValidationError("invalid status: %s", *update.Status)
	}

	current, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Category ID %d not found for update: %v", id, err)
		return nil, err
	}

	stored, err := uc.images.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	update.Image = stored

	updated, err := uc.categoryRepo.UpdateCategory(ctx, id, update)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to update category ID %d: %v", id, err)
		uc.images.discard(ctx, stored)
		return nil, err
	}

	result := &domain.CategoryMutation{Category: updated}
	if stored != nil {
		result.ImageCleanup = uc.images.replace(ctx, current.ImagePublicID)
	}

	uc.log.Infof("Use Case: Category ID %d updated successfully", id)
	return result, nil
}

func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id int64) (*domain.ImageCleanup, error) {
	if id <= 0 {
		return nil, domain.ValidationError("invalid category ID for delete")
	}

	current, err := uc.categoryRepo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.categoryRepo.DeleteCategory(ctx, id); err != nil {
		uc.log.Warnf("Use Case: Repository failed to delete category ID %d: %v", id, err)
		return nil, err
	}

	cleanup := uc.images.replace(ctx, current.ImagePublicID)
	uc.log.Infof("Use Case: Category ID %d deleted successfully", id)
	return &cleanup, nil
}
