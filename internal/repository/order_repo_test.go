package repository

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func int64Ptr(v int64) *int64 { return &v }

func cartCheckout() *domain.NewOrder {
	return &domain.NewOrder{
		UserID:      int64Ptr(7),
		CartID:      int64Ptr(3),
		TotalAmount: decimal.NewFromInt(2500),
		Items: []domain.NewOrderItem{
			{ProductID: 1, ProductName: "ProductA", Quantity: 2, UnitPrice: decimal.NewFromInt(1000)},
			{ProductID: 2, ProductName: "ProductB", Quantity: 1, UnitPrice: decimal.NewFromInt(500)},
		},
		Shipping: domain.ShippingInfo{
			FullName:       "Ana Mora",
			Identification: "1-2345-6789",
			Phone:          "8888-0000",
			Email:          "ana@example.com",
			Province:       "San Jose",
			Canton:         "Central",
			District:       "Carmen",
			AddressDetails: "200m north of the park",
			ShippingMethod: domain.ShippingExpress,
		},
		PaymentMethod: domain.PaymentCreditCard,
	}
}

func expectOrderHeader(mock sqlmock.Sqlmock, order *domain.NewOrder, id int64) {
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(sqlmock.AnyArg(), order.TotalAmount.String(), "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"id_order"}).AddRow(id))
	prep := mock.ExpectPrepare("INSERT INTO order_items")
	for _, item := range order.Items {
		prep.ExpectExec().
			WithArgs(id, item.ProductID, int64(item.Quantity), item.UnitPrice.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec("INSERT INTO shipping_info").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(id, string(order.PaymentMethod), order.TotalAmount.String(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestCreateOrder_CommitsAllWritesTogether(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())
	order := cartCheckout()

	expectOrderHeader(mock, order, 10)
	mock.ExpectExec("UPDATE products SET stock = stock - \\$1").
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock = stock - \\$1").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE carts SET status").
		WithArgs("CHECKED_OUT", int64(3), "OPEN").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(10), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_RollsBackWhenStockRunsOut(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())
	order := cartCheckout()

	expectOrderHeader(mock, order, 11)
	mock.ExpectExec("UPDATE products SET stock = stock - \\$1").
		WithArgs(int64(2), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock = stock - \\$1").
		WithArgs(int64(1), int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.CreateOrder(context.Background(), order)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "insufficient stock for ProductB", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_RejectsCartCheckedOutConcurrently(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())
	order := cartCheckout()

	expectOrderHeader(mock, order, 12)
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE carts SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.CreateOrder(context.Background(), order)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, "invalid cart", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_GuestOrderSkipsCart(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())
	order := cartCheckout()
	order.UserID = nil
	order.CartID = nil

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(nil, "2500", "PENDING").
		WillReturnRows(sqlmock.NewRows([]string{"id_order"}).AddRow(int64(13)))
	prep := mock.ExpectPrepare("INSERT INTO order_items")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO shipping_info").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products SET stock").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := repo.CreateOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, int64(13), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_LoadsDetails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())
	now := time.Now()

	mock.ExpectQuery("FROM orders o").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_order", "id_user", "total_amount", "status", "created_at", "updated_at", "email", "full_name",
		}).AddRow(int64(10), int64(7), "2500.00", "PENDING", now, now, "ana@example.com", "Ana Mora"))
	mock.ExpectQuery("FROM order_items oi").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_order_item", "id_order", "id_product", "quantity", "unit_price",
			"name", "description", "price", "image_url", "id_category", "status",
		}).
			AddRow(int64(1), int64(10), int64(1), 2, "1000.00", "ProductA", "", "1200.00", "", int64(1), "ACTIVE").
			AddRow(int64(2), int64(10), int64(2), 1, "500.00", "ProductB", "", "500.00", "", int64(1), "ACTIVE"))
	mock.ExpectQuery("FROM shipping_info").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_shipping", "id_order", "full_name", "identification", "phone", "email", "province", "canton",
			"district", "address_details", "delivery_notes", "shipping_method",
		}).AddRow(int64(1), int64(10), "Ana Mora", "", "8888", "ana@example.com", "SJ", "C", "D", "addr", "", "STANDARD"))
	mock.ExpectQuery("FROM payments").
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_payment", "id_order", "payment_method", "amount", "payment_status", "payment_reference", "created_at", "updated_at",
		}).AddRow(int64(1), int64(10), "CREDIT_CARD", "2500.00", "PENDING", "", now, now))

	order, err := repo.GetOrderByID(context.Background(), 10)
	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, int64(7), *order.UserID)
	assert.Equal(t, "ana@example.com", order.User.Email)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(1000)), "unit price is the snapshot, not the current price")
	assert.Equal(t, "ProductA", order.Items[0].Product.Name)
	require.NotNil(t, order.ShippingInfo)
	assert.Equal(t, domain.ShippingStandard, order.ShippingInfo.ShippingMethod)
	require.Len(t, order.Payments, 1)
	assert.True(t, order.Payments[0].Amount.Equal(decimal.NewFromInt(2500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())

	mock.ExpectQuery("FROM orders o").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id_order", "id_user", "total_amount", "status", "created_at", "updated_at", "email", "full_name",
		}))

	_, err := repo.GetOrderByID(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_CancelRestocksAndClosesPayments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("CANCELLED", int64(10), "PAID").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products p").
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE payments").
		WithArgs("APPROVED", "REFUNDED", "FAILED", int64(10), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateOrderStatus(context.Background(), 10, domain.OrderStatusPaid, domain.OrderStatusCancelled)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_PaidApprovesPendingPayments(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresOrderRepository(db, testLogger())

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE orders SET status").
		WithArgs("PAID", int64(10), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE payments SET payment_status").
		WithArgs("APPROVED", int64(10), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateOrderStatus(context.Background(), 10, domain.OrderStatusPending, domain.OrderStatusPaid)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateOrderStatus_DistinguishesMissingFromStale(t *testing.T) {
	tests := []struct {
		name    string
		exists  bool
		wantErr error
	}{
		{name: "missing order", exists: false, wantErr: domain.ErrNotFound},
		{name: "status changed meanwhile", exists: true, wantErr: domain.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewPostgresOrderRepository(db, testLogger())

			mock.ExpectBegin()
			mock.ExpectExec("UPDATE orders SET status").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs(int64(5)).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))
			mock.ExpectRollback()

			err := repo.UpdateOrderStatus(context.Background(), 5, domain.OrderStatusPending, domain.OrderStatusPaid)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
