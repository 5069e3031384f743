package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresCategoryRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCategoryRepository(db *sql.DB, logger *logrus.Logger) domain.CategoryRepository {
	return &postgresCategoryRepository{
		db:  db,
		log: logger,
	}
}

const categoryColumns = `id_category, name, description, image_url, image_public_id, status, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*domain.Category, error) {
	category := &domain.Category{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.ImageURL,
		&category.ImagePublicID,
		&category.Status,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	return category, err
}

func (r *postgresCategoryRepository) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	query := `
        INSERT INTO categories (name, description, image_url, image_public_id, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id_category, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		category.Name, category.Description, category.ImageURL, category.ImagePublicID, category.Status,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			r.log.Warnf("Repository: Attempted to create category with duplicate name: %s", category.Name)
			return nil, domain.ConflictError("category with name '%s' already exists", category.Name)
		}
		r.log.Errorf("Repository: Failed to create category '%s': %v", category.Name, err)
		return nil, fmt.Errorf("could not create category: %w", err)
	}

	r.log.Infof("Repository: Category created successfully with ID: %d, Name: %s", category.ID, category.Name)
	return category, nil
}

func (r *postgresCategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id_category = $1`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with ID %d not found", id)
			return nil, domain.NotFoundError("category not found")
		}
		r.log.Errorf("Repository: Failed to get category by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get category by id: %w", err)
	}
	return category, nil
}

func (r *postgresCategoryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.log.Errorf("Repository: Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan category row: %v", err)
			return nil, fmt.Errorf("error scanning category: %w", err)
		}
		categories = append(categories, *category)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during categories list iteration: %v", err)
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	r.log.Debugf("Repository: Listed %d categories", len(categories))
	return categories, nil
}

func (r *postgresCategoryRepository) UpdateCategory(ctx context.Context, id int64, update domain.CategoryUpdate) (*domain.Category, error) {
	var imageURL, imagePublicID *string
	if update.Image != nil {
		imageURL, imagePublicID = &update.Image.URL, &update.Image.PublicID
	}

	query := `
        UPDATE categories
        SET name            = COALESCE($1, name),
            description     = COALESCE($2, description),
            status          = COALESCE($3, status),
            image_url       = COALESCE($4, image_url),
            image_public_id = COALESCE($5, image_public_id),
            updated_at      = NOW()
        WHERE id_category = $6
        RETURNING ` + categoryColumns

	category, err := scanCategory(r.db.QueryRowContext(ctx, query,
		update.Name, update.Description, statusArg(update.Status), imageURL, imagePublicID, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Category with ID %d not found for update", id)
			return nil, domain.NotFoundError("category not found")
		}
		if pqErrorCode(err) == pqUniqueViolation {
			return nil, domain.ConflictError("category with name '%s' already exists", *update.Name)
		}
		r.log.Errorf("Repository: Failed to update category ID %d: %v", id, err)
		return nil, fmt.Errorf("could not update category: %w", err)
	}

	r.log.Infof("Repository: Category updated successfully with ID: %d", id)
	return category, nil
}

func (r *postgresCategoryRepository) DeleteCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id_category = $1`, id)
	if err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			r.log.Warnf("Repository: Category %d still has products", id)
			return domain.ConflictError("category %d still has products", id)
		}
		r.log.Errorf("Repository: Failed to delete category ID %d: %v", id, err)
		return fmt.Errorf("could not delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.log.Errorf("Repository: Failed to get rows affected after deleting category ID %d: %v", id, err)
		return fmt.Errorf("could not confirm category deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent category ID %d", id)
		return domain.NotFoundError("category not found")
	}

	r.log.Infof("Repository: Category deleted successfully with ID: %d", id)
	return nil
}

// statusArg turns an optional status into a driver argument; nil stays NULL.
func statusArg(s *domain.Status) any {
	if s == nil {
		return nil
	}
	return string(*s)
}
