package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID            int64     `json:"id_category"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	ImagePublicID string    `json:"-"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID            int64           `json:"id_product"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	ImageURL      string          `json:"image_url,omitempty"`
	ImagePublicID string          `json:"-"`
	CategoryID    int64           `json:"id_category"`
	Category      *Category       `json:"category,omitempty"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type CategoryInput struct {
	Name        string
	Description string
	Status      Status
}

type CategoryUpdate struct {
	Name        *string
	Description *string
	Status      *Status
	Image       *StoredImage
}

type ProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	CategoryID  int64
	Status      Status
}

type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	CategoryID  *int64
	Status      *Status
	Image       *StoredImage
}

type ProductFilter struct {
	CategoryID *int64
	Status     *Status
	Search     string
}

// CategoryMutation is the result of a create or update: the stored category
// plus the outcome of removing the image it replaced.
type CategoryMutation struct {
	Category     *Category    `json:"category"`
	ImageCleanup ImageCleanup `json:"image_cleanup"`
}

type ProductMutation struct {
	Product      *Product     `json:"product"`
	ImageCleanup ImageCleanup `json:"image_cleanup"`
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, category *Category) (*Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id int64, update CategoryUpdate) (*Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, update ProductUpdate) (*Product, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type CategoryUseCase interface {
	CreateCategory(ctx context.Context, input CategoryInput, image *ImageUpload) (*CategoryMutation, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	UpdateCategory(ctx context.Context, id int64, update CategoryUpdate, image *ImageUpload) (*CategoryMutation, error)
	DeleteCategory(ctx context.Context, id int64) (*ImageCleanup, error)
}

type ProductUseCase interface {
	CreateProduct(ctx context.Context, input ProductInput, image *ImageUpload) (*ProductMutation, error)
	GetProductByID(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]Product, error)
	UpdateProduct(ctx context.Context, id int64, update ProductUpdate, image *ImageUpload) (*ProductMutation, error)
	DeleteProduct(ctx context.Context, id int64) (*ImageCleanup, error)
}

// ProductCache is a read-through cache for single products. A miss is
// reported as (nil, nil).
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	SetProduct(ctx context.Context, product *Product) error
	InvalidateProducts(ctx context.Context, ids ...int64) error
}
