package mysql

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/repository"
	dbinfra "storefront/internal/infra/mysql"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, dbinfra.AutoMigrate(db))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int64) domain.Product {
	t.Helper()
	p := domain.Product{Name: name, Price: decimal.RequireFromString(price), Stock: stock, Available: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint64, items ...domain.OrderItem) *domain.Order {
	t.Helper()
	o := &domain.Order{
		UserID:     userID,
		FirstName:  "Rahim",
		LastName:   "Uddin",
		Email:      "rahim@example.com",
		Phone:      "01712345678",
		Address:    "House 1",
		City:       "Dhaka",
		PostalCode: "1207",
		Status:     domain.StatusPending,
		Items:      items,
	}
	o.TotalCost = o.ItemsTotal()
	require.NoError(t, db.Create(o).Error)
	return o
}

func stockOf(t *testing.T, db *gorm.DB, productID uint64) int64 {
	t.Helper()
	var p domain.Product
	require.NoError(t, db.First(&p, productID).Error)
	return p.Stock
}

func TestOrderRepository_CreateFromCart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedProduct(t, db, "A", "100.00", 5)
	b := seedProduct(t, db, "B", "250.00", 3)

	cart := domain.Cart{UserID: 42, Items: []domain.CartItem{
		{ProductID: a.ID, Quantity: 2},
		{ProductID: b.ID, Quantity: 1},
	}}
	require.NoError(t, db.Create(&cart).Error)

	repo := NewOrderRepository(db)
	order := &domain.Order{
		UserID:    42,
		FirstName: "Rahim",
		LastName:  "Uddin",
		Email:     "rahim@example.com",
		Phone:     "01712345678",
		Address:   "House 1",
		City:      "Dhaka",
		Status:    domain.StatusPending,
		Items: []domain.OrderItem{
			{ProductID: a.ID, Quantity: 2, Price: a.Price},
			{ProductID: b.ID, Quantity: 1, Price: b.Price},
		},
	}
	order.TotalCost = order.ItemsTotal()

	require.NoError(t, repo.CreateFromCart(ctx, order, cart.ID))
	assert.NotZero(t, order.ID)

	var remaining int64
	require.NoError(t, db.Model(&domain.CartItem{}).Where("cart_id = ?", cart.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	stored, err := repo.FindByIDForUser(ctx, order.ID, 42)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Items, 2)
	assert.True(t, decimal.RequireFromString("450").Equal(stored.TotalCost))
	assert.False(t, stored.Paid)
	assert.Nil(t, stored.TransactionID)

	other, err := repo.FindByIDForUser(ctx, order.ID, 43)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestOrderRepository_AssignTransactionID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "A", "100.00", 5)
	order := seedOrder(t, db, 42, domain.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price})
	repo := NewOrderRepository(db)

	ok, err := repo.AssignTransactionID(ctx, order.ID, "1-first")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AssignTransactionID(ctx, order.ID, "1-second")
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByTransactionID(ctx, "1-first")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)
	assert.Len(t, found.Items, 1)

	missing, err := repo.FindByTransactionID(ctx, "1-second")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedProduct(t, db, "A", "100.00", 5)
	b := seedProduct(t, db, "B", "250.00", 3)
	order := seedOrder(t, db, 42,
		domain.OrderItem{ProductID: a.ID, Quantity: 2, Price: a.Price},
		domain.OrderItem{ProductID: b.ID, Quantity: 1, Price: b.Price},
	)
	repo := NewOrderRepository(db)
	conf := domain.PaymentConfirmation{TransactionID: "1-abc", ValidationID: "VAL-1"}

	applied, err := repo.MarkPaid(ctx, order.ID, conf)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(3), stockOf(t, db, a.ID))
	assert.Equal(t, int64(2), stockOf(t, db, b.ID))

	applied, err = repo.MarkPaid(ctx, order.ID, conf)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, int64(3), stockOf(t, db, a.ID))
	assert.Equal(t, int64(2), stockOf(t, db, b.ID))

	stored, err := repo.FindByIDForUser(ctx, order.ID, 42)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
	require.NotNil(t, stored.TransactionID)
	assert.Equal(t, "1-abc", *stored.TransactionID)
	require.NotNil(t, stored.ValidationID)
	assert.Equal(t, "VAL-1", *stored.ValidationID)
}

func TestOrderRepository_MarkPaid_ClampsStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "A", "10.00", 3)
	order := seedOrder(t, db, 42, domain.OrderItem{ProductID: p.ID, Quantity: 10, Price: p.Price})

	applied, err := NewOrderRepository(db).MarkPaid(ctx, order.ID, domain.PaymentConfirmation{ValidationID: "VAL-2"})
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, int64(0), stockOf(t, db, p.ID))
}

func TestOrderRepository_ResetToPending(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	p := seedProduct(t, db, "A", "10.00", 3)
	repo := NewOrderRepository(db)

	unpaid := seedOrder(t, db, 42, domain.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price})
	require.NoError(t, db.Model(unpaid).Update("status", domain.StatusConfirmed).Error)

	reset, err := repo.ResetToPending(ctx, unpaid.ID)
	require.NoError(t, err)
	assert.True(t, reset)

	stored, err := repo.FindByIDForUser(ctx, unpaid.ID, 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)

	paid := seedOrder(t, db, 42, domain.OrderItem{ProductID: p.ID, Quantity: 1, Price: p.Price})
	_, err = repo.MarkPaid(ctx, paid.ID, domain.PaymentConfirmation{ValidationID: "VAL-3"})
	require.NoError(t, err)

	reset, err = repo.ResetToPending(ctx, paid.ID)
	require.NoError(t, err)
	assert.False(t, reset)

	stored, err = repo.FindByIDForUser(ctx, paid.ID, 42)
	require.NoError(t, err)
	assert.True(t, stored.Paid)
	assert.Equal(t, domain.StatusProcessing, stored.Status)
}

func TestCartRepository_FindByUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedProduct(t, db, "A", "100.00", 5)
	b := seedProduct(t, db, "B", "250.00", 3)
	cart := domain.Cart{UserID: 42, Items: []domain.CartItem{
		{ProductID: b.ID, Quantity: 1},
		{ProductID: a.ID, Quantity: 2},
	}}
	require.NoError(t, db.Create(&cart).Error)

	repo := NewCartRepository(db)

	found, err := repo.FindByUser(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Items, 2)
	assert.Equal(t, "B", found.Items[0].Product.Name)
	assert.Equal(t, "A", found.Items[1].Product.Name)
	assert.True(t, decimal.RequireFromString("450").Equal(found.TotalPrice()))

	none, err := repo.FindByUser(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestOrderRepository_CreateFromCart_RejectsConsumedCart(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := seedProduct(t, db, "A", "100.00", 5)

	cart := domain.Cart{UserID: 42, Items: []domain.CartItem{{ProductID: a.ID, Quantity: 2}}}
	require.NoError(t, db.Create(&cart).Error)

	repo := NewOrderRepository(db)
	carts := NewCartRepository(db)

	// both checkouts read the cart before either converts it
	newOrder := func() *domain.Order {
		found, err := carts.FindByUser(ctx, 42)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		o := &domain.Order{
			UserID:    42,
			FirstName: "Rahim",
			LastName:  "Uddin",
			Email:     "rahim@example.com",
			Phone:     "01712345678",
			Address:   "House 1",
			City:      "Dhaka",
			Status:    domain.StatusPending,
		}
		for _, it := range found.Items {
			o.Items = append(o.Items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Product.FinalPrice()})
		}
		o.TotalCost = o.ItemsTotal()
		return o
	}
	first, second := newOrder(), newOrder()

	require.NoError(t, repo.CreateFromCart(ctx, first, cart.ID))
	err := repo.CreateFromCart(ctx, second, cart.ID)
	assert.ErrorIs(t, err, repository.ErrEmptyCart)

	var orders, items int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&orders).Error)
	require.NoError(t, db.Model(&domain.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(1), items)
}
