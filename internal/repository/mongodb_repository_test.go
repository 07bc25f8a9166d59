package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/anneth/shop/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

func setupTestDB(t *testing.T) (*mongo.Database, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	require.NoError(t, EnsureIndexes(ctx, db))

	cleanup := func() {
		_ = db.Client().Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return db, cleanup
}

func seedProduct(t *testing.T, repo *MongoProductRepository, available int) {
	err := repo.InsertProducts(context.Background(), []domain.Product{{
		ID:   "p1",
		Name: "Sofa",
		Variants: []domain.ColorVariant{
			{VariantID: "p1-red", Color: "Red", UnitPrice: decimal.NewFromInt(12), DiscountPrice: decimal.NewFromInt(10), QuantityAvailable: available},
			{VariantID: "p1-blue", Color: "Blue", UnitPrice: decimal.NewFromInt(12), DiscountPrice: decimal.NewFromInt(10), QuantityAvailable: 1},
		},
	}})
	require.NoError(t, err)
}

func TestCartRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewCartRepository(db)
	ctx := context.Background()

	t.Run("get missing cart", func(t *testing.T) {
		cart, err := repo.GetCart(ctx, "nonexistent")
		assert.ErrorIs(t, err, domain.ErrCartNotFound)
		assert.Nil(t, cart)
	})

	t.Run("save new cart then update with version", func(t *testing.T) {
		cart := &domain.Cart{
			UserID: "user-1",
			Items: []domain.CartItem{
				{ID: "l1", ProductID: "p1", VariantID: "p1-red", Quantity: 2, DiscountPrice: decimal.RequireFromString("10.25")},
			},
		}
		cart.Recalculate()

		require.NoError(t, repo.SaveCart(ctx, cart))
		assert.Equal(t, int64(1), cart.Version)
		assert.NotEmpty(t, cart.ID)

		stored, err := repo.GetCart(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, "20.5", stored.Subtotal.String())
		assert.Equal(t, int64(1), stored.Version)

		stored.Items[0].Quantity = 3
		stored.Recalculate()
		require.NoError(t, repo.SaveCart(ctx, stored))
		assert.Equal(t, int64(2), stored.Version)

		// a writer holding the old version loses
		cart.Items[0].Quantity = 7
		assert.ErrorIs(t, repo.SaveCart(ctx, cart), domain.ErrCartConflict)

		final, err := repo.GetCart(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 3, final.Items[0].Quantity)
	})

	t.Run("second insert for same user conflicts", func(t *testing.T) {
		require.NoError(t, repo.SaveCart(ctx, &domain.Cart{UserID: "user-2"}))
		err := repo.SaveCart(ctx, &domain.Cart{UserID: "user-2"})
		assert.ErrorIs(t, err, domain.ErrCartConflict)
	})

	t.Run("replace keeps id and bumps version", func(t *testing.T) {
		original := &domain.Cart{UserID: "user-3", Items: []domain.CartItem{{ID: "l1", ProductID: "p1", Quantity: 1}}}
		require.NoError(t, repo.SaveCart(ctx, original))

		replacement := &domain.Cart{UserID: "user-3", Items: []domain.CartItem{{ID: "l9", ProductID: "p2", Quantity: 4}}, DeliveryFee: decimal.NewFromInt(3)}
		replacement.Recalculate()
		require.NoError(t, repo.ReplaceCart(ctx, replacement))

		assert.Equal(t, original.ID, replacement.ID)
		assert.Equal(t, int64(2), replacement.Version)
		require.Len(t, replacement.Items, 1)
		assert.Equal(t, "l9", replacement.Items[0].ID)
		assert.Equal(t, "3", replacement.DeliveryFee.String())
	})

	t.Run("replace creates when missing", func(t *testing.T) {
		cart := &domain.Cart{UserID: "user-4"}
		require.NoError(t, repo.ReplaceCart(ctx, cart))
		assert.Equal(t, int64(1), cart.Version)
		assert.NotEmpty(t, cart.ID)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteCart(ctx, "user-4"))
		assert.ErrorIs(t, repo.DeleteCart(ctx, "user-4"), domain.ErrCartNotFound)
	})
}

func TestProductRepository_DecrementVariant(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 5)

	require.NoError(t, repo.DecrementVariant(ctx, "p1", "p1-red", 2))

	product, err := repo.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, product.Variants[0].QuantityAvailable)
	assert.Equal(t, 2, product.Variants[0].QuantitySold)
	assert.Equal(t, 1, product.Variants[1].QuantityAvailable)
	assert.Equal(t, 2, product.Sold)
	assert.Equal(t, "10", product.Variants[0].DiscountPrice.String())

	assert.ErrorIs(t, repo.DecrementVariant(ctx, "p1", "p1-red", 4), domain.ErrOutOfStock)
	assert.ErrorIs(t, repo.DecrementVariant(ctx, "p1", "p1-green", 1), domain.ErrVariantNotFound)
	assert.ErrorIs(t, repo.DecrementVariant(ctx, "nope", "p1-red", 1), domain.ErrProductNotFound)

	require.NoError(t, repo.RestoreVariant(ctx, "p1", "p1-red", 2))
	product, err = repo.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, product.Variants[0].QuantityAvailable)
	assert.Equal(t, 0, product.Variants[0].QuantitySold)
	assert.Equal(t, 0, product.Sold)
}

func TestProductRepository_ConcurrentDecrements(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 5)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.DecrementVariant(ctx, "p1", "p1-red", 3)
		}(i)
	}
	wg.Wait()

	successes, outOfStock := 0, 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrOutOfStock)
		outOfStock++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, outOfStock)

	product, err := repo.FindProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, product.Variants[0].QuantityAvailable)
	assert.Equal(t, 3, product.Variants[0].QuantitySold)
}

func TestProductRepository_DeleteAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(db)
	ctx := context.Background()
	seedProduct(t, repo, 5)

	deleted, err := repo.DeleteAllProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindProduct(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestOrderRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &domain.Order{
		ID:             "o1",
		OrderBy:        "user-1",
		Items:          []domain.OrderItem{{ProductID: "p1", VariantID: "p1-red", Quantity: 1, Price: decimal.NewFromInt(10)}},
		TotalAmount:    decimal.RequireFromString("15.50"),
		OrderStatus:    domain.OrderStatusProcessing,
		IdempotencyKey: "key-1",
	}
	require.NoError(t, repo.CreateOrder(ctx, order))

	t.Run("get scoped to owner", func(t *testing.T) {
		got, err := repo.GetOrder(ctx, "user-1", "o1")
		require.NoError(t, err)
		assert.Equal(t, "15.5", got.TotalAmount.String())

		_, err = repo.GetOrder(ctx, "user-2", "o1")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})

	t.Run("idempotency key is unique per user", func(t *testing.T) {
		dup := *order
		dup.ID = "o2"
		assert.ErrorIs(t, repo.CreateOrder(ctx, &dup), domain.ErrDuplicateOrder)

		other := *order
		other.ID = "o3"
		other.OrderBy = "user-2"
		require.NoError(t, repo.CreateOrder(ctx, &other))

		found, err := repo.FindByIdempotencyKey(ctx, "user-1", "key-1")
		require.NoError(t, err)
		assert.Equal(t, "o1", found.ID)
	})

	t.Run("orders without key do not collide", func(t *testing.T) {
		require.NoError(t, repo.CreateOrder(ctx, &domain.Order{ID: "o4", OrderBy: "user-1", OrderStatus: domain.OrderStatusNotProcessed}))
		require.NoError(t, repo.CreateOrder(ctx, &domain.Order{ID: "o5", OrderBy: "user-1", OrderStatus: domain.OrderStatusNotProcessed}))

		orders, err := repo.ListOrders(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, orders, 3)
	})

	t.Run("cancel is conditional and records the failure", func(t *testing.T) {
		require.NoError(t, repo.CancelOrder(ctx, "o1", domain.OrderStatusProcessing, "out_of_stock"))

		stored, err := repo.GetOrder(ctx, "user-1", "o1")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, stored.OrderStatus)
		assert.Equal(t, "out_of_stock", stored.FailureCode)

		err = repo.CancelOrder(ctx, "o1", domain.OrderStatusProcessing, "out_of_stock")
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		err = repo.CancelOrder(ctx, "missing", domain.OrderStatusProcessing, "out_of_stock")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)

		err = repo.CancelOrder(ctx, "o4", domain.OrderStatusDelivered, "out_of_stock")
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})

	t.Run("cancelled order only gets the failure code", func(t *testing.T) {
		require.NoError(t, repo.CreateOrder(ctx, &domain.Order{ID: "o6", OrderBy: "user-2", OrderStatus: domain.OrderStatusCancelled}))
		require.NoError(t, repo.CancelOrder(ctx, "o6", domain.OrderStatusCancelled, "out_of_stock"))

		stored, err := repo.GetOrder(ctx, "user-2", "o6")
		require.NoError(t, err)
		assert.Equal(t, domain.OrderStatusCancelled, stored.OrderStatus)
		assert.Equal(t, "out_of_stock", stored.FailureCode)
	})
}

func TestAddressRepository(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewAddressRepository(db)
	ctx := context.Background()

	_, err := repo.LatestAddress(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)

	first := &domain.Address{UserID: "user-1", Street: "1 Old Rd", City: "A", State: "S", Country: "US"}
	require.NoError(t, repo.CreateAddress(ctx, first))
	second := &domain.Address{UserID: "user-1", Street: "2 New Rd", City: "B", State: "S", Country: "US", CreatedAt: first.CreatedAt.Add(time.Second)}
	require.NoError(t, repo.CreateAddress(ctx, second))

	latest, err := repo.LatestAddress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "2 New Rd", latest.Street)

	all, err := repo.ListAddresses(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, repo.DeleteAddress(ctx, "user-2", second.ID), domain.ErrAddressNotFound)
	require.NoError(t, repo.DeleteAddress(ctx, "user-1", second.ID))

	latest, err = repo.LatestAddress(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "1 Old Rd", latest.Street)
}
