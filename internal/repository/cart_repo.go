package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresCartRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresCartRepository(db *sql.DB, logger *logrus.Logger) domain.CartRepository {
	return &postgresCartRepository{
		db:  db,
		log: logger,
	}
}

const cartColumns = `id_cart, id_user, status, created_at, updated_at`

func scanCart(row interface{ Scan(...any) error }) (*domain.Cart, error) {
	cart := &domain.Cart{}
	var userID sql.NullInt64
	if err := row.Scan(&cart.ID, &userID, &cart.Status, &cart.CreatedAt, &cart.UpdatedAt); err != nil {
		return nil, err
	}
	cart.UserID = nullableID(userID)
	return cart, nil
}

func (r *postgresCartRepository) CreateCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `INSERT INTO carts (id_user, status) VALUES ($1, $2) RETURNING ` + cartColumns

	cart, err := scanCart(r.db.QueryRowContext(ctx, query, userID, string(domain.CartStatusOpen)))
	if err != nil {
		if pqErrorCode(err) == pqUniqueViolation {
			return nil, domain.ConflictError("user %d already has an open cart", userID)
		}
		r.log.Errorf("Repository: Failed to create cart for user %d: %v", userID, err)
		return nil, fmt.Errorf("could not create cart: %w", err)
	}
	cart.Items = []domain.CartItem{}

	r.log.Infof("Repository: Cart %d created for user %d", cart.ID, userID)
	return cart, nil
}

func (r *postgresCartRepository) GetCartByID(ctx context.Context, id int64) (*domain.Cart, error) {
	cart, err := scanCart(r.db.QueryRowContext(ctx, `SELECT `+cartColumns+` FROM carts WHERE id_cart = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("cart not found")
		}
		r.log.Errorf("Repository: Failed to get cart %d: %v", id, err)
		return nil, fmt.Errorf("could not get cart: %w", err)
	}
	return r.withItems(ctx, cart)
}

func (r *postgresCartRepository) GetOpenCartByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id_user = $1 AND status = $2`

	cart, err := scanCart(r.db.QueryRowContext(ctx, query, userID, string(domain.CartStatusOpen)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("no open cart for user %d", userID)
		}
		r.log.Errorf("Repository: Failed to get open cart of user %d: %v", userID, err)
		return nil, fmt.Errorf("could not get cart: %w", err)
	}
	return r.withItems(ctx, cart)
}

func (r *postgresCartRepository) withItems(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	query := `
        SELECT ci.id_cart_item, ci.id_cart, ci.id_product, ci.quantity, ci.unit_price,
               p.name, p.description, p.price, p.stock, p.image_url, p.id_category, p.status
        FROM cart_items ci
        JOIN products p ON p.id_product = ci.id_product
        WHERE ci.id_cart = $1
        ORDER BY ci.id_cart_item`

	rows, err := r.db.QueryContext(ctx, query, cart.ID)
	if err != nil {
		r.log.Errorf("Repository: Failed to query items of cart %d: %v", cart.ID, err)
		return nil, fmt.Errorf("could not retrieve cart items: %w", err)
	}
	defer rows.Close()

	cart.Items = []domain.CartItem{}
	for rows.Next() {
		item := domain.CartItem{Product: &domain.Product{}}
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.Product.Name, &item.Product.Description, &item.Product.Price, &item.Product.Stock,
			&item.Product.ImageURL, &item.Product.CategoryID, &item.Product.Status,
		); err != nil {
			r.log.Errorf("Repository: Failed to scan item of cart %d: %v", cart.ID, err)
			return nil, fmt.Errorf("error scanning cart item: %w", err)
		}
		item.Product.ID = item.ProductID
		cart.Items = append(cart.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	cart.RecalculateTotal()
	return cart, nil
}

func (r *postgresCartRepository) GetCartItemByID(ctx context.Context, itemID int64) (*domain.CartItem, error) {
	query := `SELECT id_cart_item, id_cart, id_product, quantity, unit_price FROM cart_items WHERE id_cart_item = $1`

	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFoundError("cart item not found")
		}
		r.log.Errorf("Repository: Failed to get cart item %d: %v", itemID, err)
		return nil, fmt.Errorf("could not get cart item: %w", err)
	}
	return item, nil
}

func (r *postgresCartRepository) AddCartItem(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	query := `
        INSERT INTO cart_items (id_cart, id_product, quantity, unit_price)
        VALUES ($1, $2, $3, $4)
        RETURNING id_cart_item`

	err := r.db.QueryRowContext(ctx, query, item.CartID, item.ProductID, item.Quantity, item.UnitPrice).Scan(&item.ID)
	if err != nil {
		switch pqErrorCode(err) {
		case pqUniqueViolation:
			return nil, domain.ConflictError("product %d is already in the cart", item.ProductID)
		case pqForeignKeyViolation:
			return nil, domain.NotFoundError("product not found")
		}
		r.log.Errorf("Repository: Failed to add product %d to cart %d: %v", item.ProductID, item.CartID, err)
		return nil, fmt.Errorf("could not add cart item: %w", err)
	}

	r.log.Infof("Repository: Product %d (qty %d) added to cart %d", item.ProductID, item.Quantity, item.CartID)
	return item, nil
}

func (r *postgresCartRepository) UpdateCartItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE cart_items SET quantity = $1 WHERE id_cart_item = $2`, quantity, itemID)
	if err != nil {
		if pqErrorCode(err) == pqCheckViolation {
			return domain.ValidationError("quantity must be greater than zero")
		}
		r.log.Errorf("Repository: Failed to update cart item %d: %v", itemID, err)
		return fmt.Errorf("could not update cart item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFoundError("cart item not found")
	}
	return nil
}

func (r *postgresCartRepository) DeleteCartItem(ctx context.Context, itemID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id_cart_item = $1`, itemID)
	if err != nil {
		r.log.Errorf("Repository: Failed to delete cart item %d: %v", itemID, err)
		return fmt.Errorf("could not delete cart item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NotFoundError("cart item not found")
	}
	return nil
}

func (r *postgresCartRepository) ClearCart(ctx context.Context, cartID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id_cart = $1`, cartID)
	if err != nil {
		r.log.Errorf("Repository: Failed to clear cart %d: %v", cartID, err)
		return fmt.Errorf("could not clear cart: %w", err)
	}
	n, _ := result.RowsAffected()
	r.log.Infof("Repository: Cart %d cleared (%d items removed)", cartID, n)
	return nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
