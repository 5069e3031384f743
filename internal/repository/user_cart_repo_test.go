package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
)

var userRowColumns = []string{
	"id_user", "email", "full_name", "password_hash", "phone", "avatar", "role", "status", "created_at", "updated_at",
}

func TestGetUserByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db, testLogger())
	now := time.Now()

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(7), "ana@example.com", "Ana", "hash", "8888-0000", "", "ADMIN", "ACTIVE", now, now))

	user, err := repo.GetUserByEmail(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db, testLogger())

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePassword_MissingUser(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepository(db, testLogger())

	mock.ExpectExec(`UPDATE users SET password_hash = \$1`).
		WithArgs("new-hash", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), 3, "new-hash")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCart_SecondOpenCartIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCartRepository(db, testLogger())

	mock.ExpectQuery("INSERT INTO carts").
		WithArgs(int64(5), "OPEN").
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	_, err := repo.CreateCart(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCartByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCartRepository(db, testLogger())

	mock.ExpectQuery(`FROM carts WHERE id_cart = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCartByID(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCartRepository(db, testLogger())

	mock.ExpectQuery("INSERT INTO cart_items").
		WillReturnError(&pq.Error{Code: pqForeignKeyViolation})

	_, err := repo.AddCartItem(context.Background(), &domain.CartItem{CartID: 1, ProductID: 99, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
