package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

var _ domain.CartUseCase = (*cartUseCase)(nil)

type cartUseCase struct {
	cartRepo    domain.CartRepository
	productRepo domain.ProductRepository
	log         *logrus.Logger
}

func NewCartUseCase(cartRepo domain.CartRepository, productRepo domain.ProductRepository, logger *logrus.Logger) domain.CartUseCase {
	return &cartUseCase{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		log:         logger,
	}
}

// GetCart returns the caller's OPEN cart, creating one when there is none.
func (uc *cartUseCase) GetCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := uc.cartRepo.GetOpenCartByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	uc.log.Infof("Use Case: Creating cart for user %d", userID)
	cart, err = uc.cartRepo.CreateCart(ctx, userID)
	if errors.Is(err, domain.ErrConflict) {
		// a concurrent request created it first
		return uc.cartRepo.GetOpenCartByUserID(ctx, userID)
	}
	return cart, err
}

func (uc *cartUseCase) AddItem(ctx context.Context, userID, productID int64, quantity int) (*domain.Cart, error) {
	if productID <= 0 {
		return nil, domain.ValidationError("invalid product ID")
	}
	if quantity <= 0 {
		return nil, domain.ValidationError("quantity must be greater than zero")
	}

	product, err := uc.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.Status != domain.StatusActive {
		return nil, domain.ValidationError("product %s is not available", product.Name)
	}

	cart, err := uc.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing := cart.FindItemByProduct(productID)
	requested := quantity
	if existing != nil {
		requested += existing.Quantity
	}
	if requested > product.Stock {
		uc.log.Warnf("Use Case: Cart add rejected for user %d - product %d stock %d < %d", userID, productID, product.Stock, requested)
		return nil, insufficientStock(product, requested)
	}

	if existing != nil {
		err = uc.cartRepo.UpdateCartItemQuantity(ctx, existing.ID, requested)
	} else {
		_, err = uc.cartRepo.AddCartItem(ctx, &domain.CartItem{
			CartID:    cart.ID,
			ProductID: productID,
			Quantity:  quantity,
			UnitPrice: product.Price,
		})
	}
	if err != nil {
		uc.log.Errorf("Use Case: Failed to add product %d to cart %d: %v", productID, cart.ID, err)
		return nil, err
	}

	uc.log.Infof("Use Case: User %d now has %d x product %d in cart %d", userID, requested, productID, cart.ID)
	return uc.cartRepo.GetCartByID(ctx, cart.ID)
}

func (uc *cartUseCase) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return nil, domain.ValidationError("quantity must be greater than zero")
	}

	cart, item, err := uc.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := uc.productRepo.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if quantity > product.Stock {
		return nil, insufficientStock(product, quantity)
	}

	if err := uc.cartRepo.UpdateCartItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, err
	}
	return uc.cartRepo.GetCartByID(ctx, cart.ID)
}

func (uc *cartUseCase) RemoveItem(ctx context.Context, userID, itemID int64) (*domain.Cart, error) {
	cart, _, err := uc.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if err := uc.cartRepo.DeleteCartItem(ctx, itemID); err != nil {
		return nil, err
	}

	uc.log.Infof("Use Case: Item %d removed from cart %d", itemID, cart.ID)
	return uc.cartRepo.GetCartByID(ctx, cart.ID)
}

func (uc *cartUseCase) ClearCart(ctx context.Context, userID, cartID int64) (*domain.Cart, error) {
	cart, err := uc.cartRepo.GetCartByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ForbiddenError("invalid cart")
		}
		return nil, err
	}
	if !cart.OwnedBy(userID) || cart.Status != domain.CartStatusOpen {
		uc.log.Warnf("Use Case: User %d attempted to clear cart %d", userID, cartID)
		return nil, domain.ForbiddenError("invalid cart")
	}

	if err := uc.cartRepo.ClearCart(ctx, cartID); err != nil {
		return nil, err
	}
	return uc.cartRepo.GetCartByID(ctx, cartID)
}

// ownedItem loads the caller's open cart and the item, which must belong to it.
func (uc *cartUseCase) ownedItem(ctx context.Context, userID, itemID int64) (*domain.Cart, *domain.CartItem, error) {
	if itemID <= 0 {
		return nil, nil, domain.ValidationError("invalid cart item ID")
	}
	cart, err := uc.cartRepo.GetOpenCartByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.NotFoundError("cart item not found")
		}
		return nil, nil, err
	}
	item, err := uc.cartRepo.GetCartItemByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item.CartID != cart.ID {
		uc.log.Warnf("Use Case: User %d referenced item %d of another cart", userID, itemID)
		return nil, nil, domain.NotFoundError("cart item not found")
	}
	return cart, item, nil
}

func insufficientStock(product *domain.Product, requested int) error {
	return domain.ValidationError("insufficient stock for %s. available: %d, requested: %d", product.Name, product.Stock, requested)
}
