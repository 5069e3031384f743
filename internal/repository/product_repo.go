package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresProductRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresProductRepository(db *sql.DB, logger *logrus.Logger) domain.ProductRepository {
	return &postgresProductRepository{
		db:  db,
		log: logger,
	}
}

const productSelect = `
        SELECT p.id_product, p.name, p.description, p.price, p.stock, p.image_url, p.image_public_id,
               p.id_category, p.status, p.created_at, p.updated_at,
               c.name, c.description, c.image_url, c.status
        FROM products p
        JOIN categories c ON c.id_category = p.id_category`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	p := &domain.Product{Category: &domain.Category{}}
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Price,
		&p.Stock,
		&p.ImageURL,
		&p.ImagePublicID,
		&p.CategoryID,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.Category.Name,
		&p.Category.Description,
		&p.Category.ImageURL,
		&p.Category.Status,
	)
	p.Category.ID = p.CategoryID
	return p, err
}

func (r *postgresProductRepository) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	query := `
        INSERT INTO products (name, description, price, stock, image_url, image_public_id, id_category, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id_product`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.Stock,
		product.ImageURL, product.ImagePublicID, product.CategoryID, product.Status,
	).Scan(&id)
	if err != nil {
		switch pqErrorCode(err) {
		case pqForeignKeyViolation:
			r.log.Warnf("Repository: Category %d does not exist for new product '%s'", product.CategoryID, product.Name)
			return nil, domain.NotFoundError("category not found")
		case pqCheckViolation:
			return nil, domain.ValidationError("invalid product data: %s", product.Name)
		}
		r.log.Errorf("Repository: Failed to create product '%s': %v", product.Name, err)
		return nil, fmt.Errorf("could not create product: %w", err)
	}

	r.log.Infof("Repository: Product created successfully with ID: %d, Name: %s", id, product.Name)
	return r.GetProductByID(ctx, id)
}

func (r *postgresProductRepository) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id_product = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Debugf("Repository: Product with ID %d not found", id)
			return nil, domain.NotFoundError("product not found")
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, fmt.Errorf("could not get product by id: %w", err)
	}
	return product, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (r *postgresProductRepository) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("p.id_category = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+likeEscaper.Replace(search)+"%")
		conditions = append(conditions, fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d)", len(args), len(args)))
	}

	query := productSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, fmt.Errorf("could not list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, fmt.Errorf("error scanning product: %w", err)
		}
		products = append(products, *product)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	r.log.Debugf("Repository: Listed %d products", len(products))
	return products, nil
}

func (r *postgresProductRepository) UpdateProduct(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error) {
	var imageURL, imagePublicID *string
	if update.Image != nil {
		imageURL, imagePublicID = &update.Image.URL, &update.Image.PublicID
	}

	query := `
        UPDATE products
        SET name            = COALESCE($1, name),
            description     = COALESCE($2, description),
            price           = COALESCE($3, price),
            stock           = COALESCE($4, stock),
            id_category     = COALESCE($5, id_category),
            status          = COALESCE($6, status),
            image_url       = COALESCE($7, image_url),
            image_public_id = COALESCE($8, image_public_id),
            updated_at      = NOW()
        WHERE id_product = $9
        RETURNING id_product`

	var updatedID int64
	err := r.db.QueryRowContext(ctx, query,
		update.Name, update.Description, update.Price, update.Stock, update.CategoryID,
		statusArg(update.Status), imageURL, imagePublicID, id,
	).Scan(&updatedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found for update", id)
			return nil, domain.NotFoundError("product not found")
		}
		switch pqErrorCode(err) {
		case pqForeignKeyViolation:
			return nil, domain.NotFoundError("category not found")
		case pqCheckViolation:
			return nil, domain.ValidationError("invalid product data for product %d", id)
		}
		r.log.Errorf("Repository: Failed to update product ID %d: %v", id, err)
		return nil, fmt.Errorf("could not update product: %w", err)
	}

	r.log.Infof("Repository: Product updated successfully with ID: %d", id)
	return r.GetProductByID(ctx, updatedID)
}

func (r *postgresProductRepository) DeleteProduct(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id_product = $1`, id)
	if err != nil {
		if pqErrorCode(err) == pqForeignKeyViolation {
			r.log.Warnf("Repository: Product %d is referenced by orders", id)
			return domain.ConflictError("product %d is referenced by existing orders", id)
		}
		r.log.Errorf("Repository: Failed to delete product ID %d: %v", id, err)
		return fmt.Errorf("could not delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm product deletion: %w", err)
	}
	if rowsAffected == 0 {
		r.log.Warnf("Repository: Attempted to delete non-existent product ID %d", id)
		return domain.NotFoundError("product not found")
	}

	r.log.Infof("Repository: Product deleted successfully with ID: %d", id)
	return nil
}
