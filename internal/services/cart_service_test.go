package services_test

import (
	"errors"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
)

func newCartFixture(t *testing.T) (*services.CartService, *repositories.MockCartRepository, *repositories.MockProductRepository, *models.Product) {
	t.Helper()
	cartRepo := repositories.NewMockCartRepository()
	productRepo := repositories.NewMockProductRepository()
	product := &models.Product{Name: "Widget", Description: "A widget", Price: 9.5}
	assert.NoError(t, productRepo.Create(product))
	return services.NewCartService(cartRepo, productRepo), cartRepo, productRepo, product
}

func TestCartService_AddItem_CreatesCartOnFirstUse(t *testing.T) {
	service, _, _, product := newCartFixture(t)

	cart, err := service.AddItem("cust-1", product.ID, 2)
	assert.NoError(t, err)
	assert.Equal(t, "cust-1", cart.CustomerID)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	// Product references come back resolved
	assert.NotNil(t, cart.Items[0].Product)
	assert.Equal(t, "Widget", cart.Items[0].Product.Name)
}

func TestCartService_AddItem_TwiceIncrementsQuantity(t *testing.T) {
	service, _, _, product := newCartFixture(t)

	_, err := service.AddItem("cust-1", product.ID, 2)
	assert.NoError(t, err)
	cart, err := service.AddItem("cust-1", product.ID, 3)
	assert.NoError(t, err)

	assert.Len(t, cart.Items, 1, "adding the same product must not duplicate the item")
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

func TestCartService_AddItem_UnknownProduct(t *testing.T) {
	service, _, _, _ := newCartFixture(t)

	_, err := service.AddItem("cust-1", "no-such-product", 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrProductNotFound))
}

func TestCartService_AddItem_RejectsNonPositiveQuantity(t *testing.T) {
	service, _, _, product := newCartFixture(t)

	for _, quantity := range []int{0, -3} {
		_, err := service.AddItem("cust-1", product.ID, quantity)
		assert.True(t, errors.Is(err, services.ErrInvalidQuantity))
	}
}

func TestCartService_UpdateItem_SetsAbsoluteQuantity(t *testing.T) {
	service, _, _, product := newCartFixture(t)

	_, err := service.AddItem("cust-1", product.ID, 2)
	assert.NoError(t, err)

	cart, err := service.UpdateItem("cust-1", product.ID, 7)
	assert.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity, "update is absolute, not incremental")
}

func TestCartService_UpdateItem_NonPositiveRemovesItem(t *testing.T) {
	service, _, productRepo, product := newCartFixture(t)

	second := &models.Product{Name: "Gadget", Price: 3.25}
	assert.NoError(t, productRepo.Create(second))

	_, err := service.AddItem("cust-1", product.ID, 2)
	assert.NoError(t, err)
	_, err = service.AddItem("cust-1", second.ID, 1)
	assert.NoError(t, err)

	cart, err := service.UpdateItem("cust-1", product.ID, 0)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1, "item count must strictly decrease by one")
	assert.Equal(t, second.ID, cart.Items[0].ProductID)
}

func TestCartService_UpdateItem_MissingCartAndItem(t *testing.T) {
	service, _, _, product := newCartFixture(t)

	_, err := service.UpdateItem("nobody", product.ID, 1)
	assert.True(t, errors.Is(err, repositories.ErrCartNotFound))

	_, err = service.AddItem("cust-1", product.ID, 1)
	assert.NoError(t, err)
	_, err = service.UpdateItem("cust-1", "no-such-product", 1)
	assert.True(t, errors.Is(err, services.ErrItemNotFound))
}

func TestCartService_GetCart_EmptyShapeWhenMissing(t *testing.T) {
	service, _, _, _ := newCartFixture(t)

	cart, err := service.GetCart("cust-without-cart")
	assert.NoError(t, err)
	assert.Equal(t, "cust-without-cart", cart.CustomerID)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
}

func TestCartService_GetCart_PrunesDanglingReferences(t *testing.T) {
	service, cartRepo, productRepo, product := newCartFixture(t)

	doomed := &models.Product{Name: "Discontinued", Price: 1.0}
	assert.NoError(t, productRepo.Create(doomed))

	_, err := service.AddItem("cust-1", product.ID, 1)
	assert.NoError(t, err)
	_, err = service.AddItem("cust-1", doomed.ID, 4)
	assert.NoError(t, err)

	// Deleting the product does not touch the cart eagerly.
	assert.NoError(t, productRepo.Delete(doomed.ID))
	stored, err := cartRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	cart, err := service.GetCart("cust-1")
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)
	for _, item := range cart.Items {
		assert.NotNil(t, item.Product, "no returned item may carry an unresolved reference")
	}

	// The pruned result was persisted, not just filtered for this response.
	stored, err = cartRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 1)
}

func TestCartService_UpdateItem_PrunesDanglingReferences(t *testing.T) {
	service, cartRepo, productRepo, product := newCartFixture(t)

	doomed := &models.Product{Name: "Discontinued", Price: 1.0}
	assert.NoError(t, productRepo.Create(doomed))

	_, err := service.AddItem("cust-1", product.ID, 1)
	assert.NoError(t, err)
	_, err = service.AddItem("cust-1", doomed.ID, 4)
	assert.NoError(t, err)
	assert.NoError(t, productRepo.Delete(doomed.ID))

	cart, err := service.UpdateItem("cust-1", product.ID, 2)
	assert.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	stored, err := cartRepo.GetByCustomerID("cust-1")
	assert.NoError(t, err)
	assert.Len(t, stored.Items, 1)
	assert.Equal(t, product.ID, stored.Items[0].ProductID)
}
