package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

type postgresOrderRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

func NewPostgresOrderRepository(db *sql.DB, logger *logrus.Logger) domain.OrderRepository {
	return &postgresOrderRepository{
		db:  db,
		log: logger,
	}
}

// CreateOrder writes the order, its items, shipping info and payment,
// decrements stock and closes the cart in one transaction.
func (r *postgresOrderRepository) CreateOrder(ctx context.Context, order *domain.NewOrder) (int64, error) {
	var orderID int64

	err := inTx(ctx, r.db, r.log, "CreateOrder", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO orders (id_user, total_amount, status) VALUES ($1, $2, $3) RETURNING id_order`,
			order.UserID, order.TotalAmount, string(domain.OrderStatusPending),
		).Scan(&orderID)
		if err != nil {
			r.log.Errorf("Repository: Failed to insert order: %v", err)
			return fmt.Errorf("could not create order entry: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO order_items (id_order, id_product, quantity, unit_price) VALUES ($1, $2, $3, $4)`)
		if err != nil {
			r.log.Errorf("Repository: Failed to prepare order item statement: %v", err)
			return fmt.Errorf("could not prepare item statement: %w", err)
		}
		defer stmt.Close()

		for _, item := range order.Items {
			if _, err := stmt.ExecContext(ctx, orderID, item.ProductID, item.Quantity, item.UnitPrice); err != nil {
				r.log.Errorf("Repository: Failed to insert order item (product_id: %d, quantity: %d) for order %d: %v",
					item.ProductID, item.Quantity, orderID, err)
				switch pqErrorCode(err) {
				case pqForeignKeyViolation:
					return domain.NotFoundError("product %d not found", item.ProductID)
				case pqCheckViolation:
					return domain.ValidationError("invalid item data (product_id: %d)", item.ProductID)
				}
				return fmt.Errorf("could not create order item (product_id: %d): %w", item.ProductID, err)
			}
		}

		s := order.Shipping
		_, err = tx.ExecContext(ctx, `
            INSERT INTO shipping_info (id_order, full_name, identification, phone, email, province, canton,
                                       district, address_details, delivery_notes, shipping_method)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			orderID, s.FullName, s.Identification, s.Phone, s.Email, s.Province, s.Canton,
			s.District, s.AddressDetails, s.DeliveryNotes, string(s.ShippingMethod),
		)
		if err != nil {
			r.log.Errorf("Repository: Failed to insert shipping info for order %d: %v", orderID, err)
			return fmt.Errorf("could not create shipping info: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO payments (id_order, payment_method, amount, payment_status) VALUES ($1, $2, $3, $4)`,
			orderID, string(order.PaymentMethod), order.TotalAmount, string(domain.PaymentStatusPending),
		)
		if err != nil {
			r.log.Errorf("Repository: Failed to insert payment for order %d: %v", orderID, err)
			return fmt.Errorf("could not create payment: %w", err)
		}

		for _, item := range order.Items {
			if err := r.decrementStock(ctx, tx, item); err != nil {
				return err
			}
		}

		if order.CartID != nil {
			res, err := tx.ExecContext(ctx,
				`UPDATE carts SET status = $1, updated_at = NOW() WHERE id_cart = $2 AND status = $3`,
				string(domain.CartStatusCheckedOut), *order.CartID, string(domain.CartStatusOpen),
			)
			if err != nil {
				r.log.Errorf("Repository: Failed to check out cart %d: %v", *order.CartID, err)
				return fmt.Errorf("could not check out cart: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				r.log.Warnf("Repository: Cart %d was already checked out", *order.CartID)
				return domain.ForbiddenError("invalid cart")
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"items":    len(order.Items),
		"guest":    order.UserID == nil,
	}).Info("Repository: Order created successfully")
	return orderID, nil
}

// decrementStock only succeeds while enough stock remains.
func (r *postgresOrderRepository) decrementStock(ctx context.Context, tx *sql.Tx, item domain.NewOrderItem) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id_product = $2 AND stock >= $1`,
		item.Quantity, item.ProductID,
	)
	if err != nil {
		r.log.Errorf("Repository: Failed to decrement stock of product %d: %v", item.ProductID, err)
		return fmt.Errorf("could not update stock of product %d: %w", item.ProductID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not confirm stock update of product %d: %w", item.ProductID, err)
	}
	if n == 0 {
		r.log.Warnf("Repository: Stock of product %d dropped below %d during checkout", item.ProductID, item.Quantity)
		return domain.InsufficientStockError(item.ProductName)
	}
	return nil
}

const orderSelect = `
        SELECT o.id_order, o.id_user, o.total_amount, o.status, o.created_at, o.updated_at,
               u.email, u.full_name
        FROM orders o
        LEFT JOIN users u ON u.id_user = o.id_user`

func (r *postgresOrderRepository) GetOrderByID(ctx context.Context, id int64) (*domain.Order, error) {
	orders, err := r.queryOrders(ctx, orderSelect+` WHERE o.id_order = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		r.log.Warnf("Repository: Order with ID %d not found", id)
		return nil, domain.NotFoundError("order not found")
	}
	return &orders[0], nil
}

func (r *postgresOrderRepository) ListOrdersByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := r.queryOrders(ctx, orderSelect+` WHERE o.id_user = $1 ORDER BY o.created_at DESC, o.id_order DESC`, userID)
	if err != nil {
		return nil, err
	}
	r.log.Infof("Repository: Retrieved %d orders for user ID %d", len(orders), userID)
	return orders, nil
}

func (r *postgresOrderRepository) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := r.queryOrders(ctx, orderSelect+` ORDER BY o.created_at DESC, o.id_order DESC`)
	if err != nil {
		return nil, err
	}
	r.log.Infof("Repository: Retrieved %d orders", len(orders))
	return orders, nil
}

func (r *postgresOrderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	orders, err := r.scanOrders(ctx, query, args...)
	if err != nil || len(orders) == 0 {
		return orders, err
	}
	if err := r.loadDetails(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresOrderRepository) scanOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.log.Errorf("Repository: Failed to query orders: %v", err)
		return nil, fmt.Errorf("could not retrieve orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		var (
			order    domain.Order
			userID   sql.NullInt64
			email    sql.NullString
			fullName sql.NullString
		)
		if err := rows.Scan(
			&order.ID, &userID, &order.TotalAmount, &order.Status, &order.CreatedAt, &order.UpdatedAt,
			&email, &fullName,
		); err != nil {
			r.log.Errorf("Repository: Failed to scan order row: %v", err)
			return nil, fmt.Errorf("error scanning order data: %w", err)
		}
		order.UserID = nullableID(userID)
		if order.UserID != nil && email.Valid {
			order.User = &domain.OrderCustomer{ID: *order.UserID, Email: email.String, FullName: fullName.String}
		}
		orders = append(orders, order)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during orders iteration: %v", err)
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}
	return orders, nil
}

// loadDetails fills items, shipping info and payments for a page of orders
// with one query per relation.
func (r *postgresOrderRepository) loadDetails(ctx context.Context, orders []domain.Order) error {
	ids := make([]int64, len(orders))
	index := make(map[int64]*domain.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		orders[i].Items = []domain.OrderItem{}
		orders[i].Payments = []domain.Payment{}
		index[orders[i].ID] = &orders[i]
	}

	if err := r.loadItems(ctx, ids, index); err != nil {
		return err
	}
	if err := r.loadShipping(ctx, ids, index); err != nil {
		return err
	}
	return r.loadPayments(ctx, ids, index)
}

func (r *postgresOrderRepository) loadItems(ctx context.Context, ids []int64, index map[int64]*domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
        SELECT oi.id_order_item, oi.id_order, oi.id_product, oi.quantity, oi.unit_price,
               p.name, p.description, p.price, p.image_url, p.id_category, p.status
        FROM order_items oi
        JOIN products p ON p.id_product = oi.id_product
        WHERE oi.id_order = ANY($1::bigint[])
        ORDER BY oi.id_order_item`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to query items for orders %v: %v", ids, err)
		return fmt.Errorf("could not retrieve order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item := domain.OrderItem{Product: &domain.Product{}}
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.Product.Name, &item.Product.Description, &item.Product.Price, &item.Product.ImageURL,
			&item.Product.CategoryID, &item.Product.Status,
		); err != nil {
			return fmt.Errorf("error scanning order item: %w", err)
		}
		item.Product.ID = item.ProductID
		if order, ok := index[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func (r *postgresOrderRepository) loadShipping(ctx context.Context, ids []int64, index map[int64]*domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id_shipping, id_order, full_name, identification, phone, email, province, canton,
               district, address_details, delivery_notes, shipping_method
        FROM shipping_info
        WHERE id_order = ANY($1::bigint[])`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to query shipping info for orders %v: %v", ids, err)
		return fmt.Errorf("could not retrieve shipping info: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		s := &domain.ShippingInfo{}
		if err := rows.Scan(
			&s.ID, &s.OrderID, &s.FullName, &s.Identification, &s.Phone, &s.Email, &s.Province, &s.Canton,
			&s.District, &s.AddressDetails, &s.DeliveryNotes, &s.ShippingMethod,
		); err != nil {
			return fmt.Errorf("error scanning shipping info: %w", err)
		}
		if order, ok := index[s.OrderID]; ok {
			order.ShippingInfo = s
		}
	}
	return rows.Err()
}

func (r *postgresOrderRepository) loadPayments(ctx context.Context, ids []int64, index map[int64]*domain.Order) error {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id_payment, id_order, payment_method, amount, payment_status, payment_reference, created_at, updated_at
        FROM payments
        WHERE id_order = ANY($1::bigint[])
        ORDER BY id_payment`, pq.Array(ids))
	if err != nil {
		r.log.Errorf("Repository: Failed to query payments for orders %v: %v", ids, err)
		return fmt.Errorf("could not retrieve payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID, &p.OrderID, &p.PaymentMethod, &p.Amount, &p.PaymentStatus, &p.PaymentReference,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return fmt.Errorf("error scanning payment: %w", err)
		}
		if order, ok := index[p.OrderID]; ok {
			order.Payments = append(order.Payments, p)
		}
	}
	return rows.Err()
}

// UpdateOrderStatus moves an order from one status to another. The update
// only applies while the order is still in the expected status. Payments
// follow the order, and cancellation returns the ordered quantities to stock.
func (r *postgresOrderRepository) UpdateOrderStatus(ctx context.Context, id int64, from, to domain.OrderStatus) error {
	return inTx(ctx, r.db, r.log, "UpdateOrderStatus", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id_order = $2 AND status = $3`,
			string(to), id, string(from),
		)
		if err != nil {
			if pqErrorCode(err) == pqCheckViolation {
				return domain.ValidationError("invalid order status provided: %s", to)
			}
			r.log.Errorf("Repository: Failed to update status for order ID %d: %v", id, err)
			return fmt.Errorf("could not update order status: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id_order = $1)`, id).Scan(&exists); err != nil {
				return fmt.Errorf("could not check order existence: %w", err)
			}
			if !exists {
				return domain.NotFoundError("order not found")
			}
			return domain.ConflictError("order %d is no longer %s", id, from)
		}

		switch to {
		case domain.OrderStatusPaid:
			_, err = tx.ExecContext(ctx,
				`UPDATE payments SET payment_status = $1, updated_at = NOW() WHERE id_order = $2 AND payment_status = $3`,
				string(domain.PaymentStatusApproved), id, string(domain.PaymentStatusPending),
			)
			if err != nil {
				return fmt.Errorf("could not approve payments of order %d: %w", id, err)
			}
		case domain.OrderStatusCancelled:
			if err := r.restock(ctx, tx, id); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
                UPDATE payments
                SET payment_status = CASE payment_status WHEN $1 THEN $2 ELSE $3 END,
                    updated_at = NOW()
                WHERE id_order = $4 AND payment_status IN ($1, $5)`,
				string(domain.PaymentStatusApproved), string(domain.PaymentStatusRefunded),
				string(domain.PaymentStatusFailed), id, string(domain.PaymentStatusPending),
			)
			if err != nil {
				return fmt.Errorf("could not close payments of order %d: %w", id, err)
			}
		}

		r.log.Infof("Repository: Order %d moved from %s to %s", id, from, to)
		return nil
	})
}

func (r *postgresOrderRepository) restock(ctx context.Context, tx *sql.Tx, orderID int64) error {
	res, err := tx.ExecContext(ctx, `
        UPDATE products p
        SET stock = p.stock + x.quantity, updated_at = NOW()
        FROM (SELECT id_product, SUM(quantity) AS quantity
              FROM order_items
              WHERE id_order = $1
              GROUP BY id_product) x
        WHERE p.id_product = x.id_product`, orderID)
	if err != nil {
		r.log.Errorf("Repository: Failed to restock products of order %d: %v", orderID, err)
		return fmt.Errorf("could not restock products: %w", err)
	}
	n, _ := res.RowsAffected()
	r.log.Infof("Repository: Restocked %d products from cancelled order %d", n, orderID)
	return nil
}
