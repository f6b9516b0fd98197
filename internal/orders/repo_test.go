package orders

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/shopmandi/shopmandi-backend/pkg/db/models"
	"github.com/shopmandi/shopmandi-backend/pkg/enums"
	"github.com/shopmandi/shopmandi-backend/pkg/pagination"
	"github.com/shopmandi/shopmandi-backend/pkg/types"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("SHOPMANDI_DB_DSN")
	if dsn == "" {
		t.Skip("SHOPMANDI_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	return conn
}

func mustCreateDBUser(t *testing.T, tx *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Test " + string(role),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
		Addresses:    []types.Address{},
	}
	require.NoError(t, tx.Create(user).Error)
	return user
}

func mustCreateDBProduct(t *testing.T, tx *gorm.DB, sellerID uuid.UUID, name, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		SellerID: sellerID,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    10,
	}
	require.NoError(t, tx.Create(p).Error)
	return p
}

func dbAddress() types.Address {
	return types.Address{
		Address:    "1 Market Rd",
		City:       "Pune",
		PostalCode: "411001",
		Country:    "IN",
	}
}

func TestRepositoryOrderFlow(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	buyer := mustCreateDBUser(t, tx, enums.UserRoleBuyer)
	sellerA := mustCreateDBUser(t, tx, enums.UserRoleSeller)
	sellerB := mustCreateDBUser(t, tx, enums.UserRoleSeller)
	bottle := mustCreateDBProduct(t, tx, sellerA.ID, "Steel Bottle", "100.00")
	scarf := mustCreateDBProduct(t, tx, sellerB.ID, "Cotton Scarf", "150.00")

	order := &models.Order{
		UserID:          buyer.ID,
		ShippingAddress: dbAddress(),
		PaymentMethod:   enums.PaymentMethodCOD,
		ItemsPrice:      decimal.RequireFromString("250.00"),
		TaxPrice:        decimal.Zero,
		ShippingPrice:   decimal.Zero,
		TotalPrice:      decimal.RequireFromString("250.00"),
		Status:          enums.OrderStatusPending,
		Items: []models.OrderLineItem{
			{ProductID: bottle.ID, SellerID: sellerA.ID, Position: 0, Name: bottle.Name, Price: bottle.Price, Qty: 1, Status: enums.LineItemStatusPending},
			{ProductID: scarf.ID, SellerID: sellerB.ID, Position: 1, Name: scarf.Name, Price: scarf.Price, Qty: 1, Status: enums.LineItemStatusPending},
		},
	}
	require.NoError(t, repo.Create(ctx, order))

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "Steel Bottle", loaded.Items[0].Name)
	assert.Equal(t, "Cotton Scarf", loaded.Items[1].Name)

	now := time.Now().UTC()
	require.NoError(t, repo.UpdateLineItemStatus(ctx, loaded.Items[0].ID, enums.LineItemStatusConfirmed, now))

	reloaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LineItemStatusConfirmed, reloaded.Items[0].Status)
	assert.NotNil(t, reloaded.Items[0].ConfirmedAt)

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, enums.OrderStatusConfirmed))

	sellerOrders, _, err := repo.ListBySeller(ctx, sellerA.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, sellerOrders, 1)
	// The seller listing returns whole orders, not just the seller's items.
	assert.Len(t, sellerOrders[0].Items, 2)

	buyerOrders, _, err := repo.ListByBuyer(ctx, buyer.ID, pagination.Params{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, buyerOrders, 1)

	err = repo.UpdateLineItemStatus(ctx, uuid.New(), enums.LineItemStatusConfirmed, now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRevenue(t *testing.T) {
	conn := openTestDB(t)
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	t.Cleanup(func() {
		_ = tx.Rollback()
	})

	repo := NewRepository(tx)
	ctx := context.Background()

	before, err := repo.RevenueTotal(ctx)
	require.NoError(t, err)
	countBefore, err := repo.Count(ctx)
	require.NoError(t, err)

	buyer := mustCreateDBUser(t, tx, enums.UserRoleBuyer)
	order := &models.Order{
		UserID:          buyer.ID,
		ShippingAddress: dbAddress(),
		PaymentMethod:   enums.PaymentMethodCard,
		ItemsPrice:      decimal.RequireFromString("99.50"),
		TotalPrice:      decimal.RequireFromString("99.50"),
	}
	require.NoError(t, repo.Create(ctx, order))

	after, err := repo.RevenueTotal(ctx)
	require.NoError(t, err)
	assert.True(t, after.Sub(before).Equal(decimal.RequireFromString("99.50")), "expected revenue to grow by 99.50, got %s -> %s", before, after)

	countAfter, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, countBefore+1, countAfter)
}
