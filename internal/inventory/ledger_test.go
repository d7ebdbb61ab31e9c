package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate inventory: %v", err)
	}
	return db
}

func seed(t *testing.T, db *gorm.DB, items ...models.InventoryItem) {
	t.Helper()
	for _, item := range items {
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}
}

func TestReserveSufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, models.InventoryItem{SKU: "TEE-M", AvailableQty: 5})

	err := db.Transaction(func(tx *gorm.DB) error {
		results, terr := Reserve(ctx, tx, []ReservationRequest{{SKU: "TEE-M", Qty: 2}})
		if terr != nil {
			return terr
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		r := results[0]
		if r.Short() || r.Reserved != 2 || r.Remaining != 3 {
			t.Fatalf("unexpected result %+v", r)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	var item models.InventoryItem
	if err := db.First(&item, "sku = ?", "TEE-M").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.AvailableQty != 3 {
		t.Fatalf("expected stock 3, got %d", item.AvailableQty)
	}
}

func TestReserveClampsShortfallToRemainingStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, models.InventoryItem{SKU: "TEE-M", AvailableQty: 1})

	results, err := Reserve(ctx, db, []ReservationRequest{{SKU: "TEE-M", Qty: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	r := results[0]
	if !r.Short() {
		t.Fatal("expected shortfall")
	}
	if r.Reserved != 1 || r.Remaining != 0 {
		t.Fatalf("expected clamp to 1 with stock 0, got %+v", r)
	}

	var item models.InventoryItem
	if err := db.First(&item, "sku = ?", "TEE-M").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.AvailableQty != 0 {
		t.Fatalf("stock must clamp to zero, got %d", item.AvailableQty)
	}
}

func TestReserveShortfallDoesNotRollBackOtherLines(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db,
		models.InventoryItem{SKU: "TEE-M", AvailableQty: 5},
		models.InventoryItem{SKU: "MUG-B", AvailableQty: 0},
	)

	results, err := Reserve(ctx, db, []ReservationRequest{
		{SKU: "TEE-M", Qty: 3},
		{SKU: "MUG-B", Qty: 1},
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if results[0].Short() || results[0].Reserved != 3 {
		t.Fatalf("first line should fully reserve, got %+v", results[0])
	}
	if !results[1].Short() || results[1].Reserved != 0 {
		t.Fatalf("second line should short with 0, got %+v", results[1])
	}

	var tee models.InventoryItem
	if err := db.First(&tee, "sku = ?", "TEE-M").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if tee.AvailableQty != 2 {
		t.Fatalf("applied decrement must stand, got %d", tee.AvailableQty)
	}
}

func TestReserveUnknownSKUIsFullShortfall(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	results, err := Reserve(context.Background(), db, []ReservationRequest{{SKU: "GHOST", Qty: 2}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !results[0].Short() || results[0].Reserved != 0 || results[0].Remaining != 0 {
		t.Fatalf("unexpected result %+v", results[0])
	}
}

func TestReserveRejectsInvalidRequests(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	if _, err := Reserve(context.Background(), db, []ReservationRequest{{SKU: "TEE-M", Qty: 0}}); err == nil {
		t.Fatal("expected error for zero qty")
	}
	if _, err := Reserve(context.Background(), db, []ReservationRequest{{SKU: "", Qty: 1}}); err == nil {
		t.Fatal("expected error for missing sku")
	}
}

func TestSequentialReservesNeverOversell(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, models.InventoryItem{SKU: "TEE-M", AvailableQty: 5})

	totalReserved := 0
	for i := 0; i < 4; i++ {
		results, err := Reserve(ctx, db, []ReservationRequest{{SKU: "TEE-M", Qty: 2}})
		if err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
		totalReserved += results[0].Reserved
	}
	if totalReserved != 5 {
		t.Fatalf("total reserved %d must equal starting stock 5", totalReserved)
	}

	var item models.InventoryItem
	if err := db.First(&item, "sku = ?", "TEE-M").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.AvailableQty != 0 {
		t.Fatalf("stock must end at zero, got %d", item.AvailableQty)
	}
}

func TestConcurrentReservesNeverOversell(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db, models.InventoryItem{SKU: "TEE-M", AvailableQty: 5})

	// Demand 16 against stock 5: the guarded decrement must hand out
	// exactly the starting stock no matter how the writers interleave.
	const racers = 8
	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		totalReserved int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := Reserve(ctx, db, []ReservationRequest{{SKU: "TEE-M", Qty: 2}})
			if err != nil {
				t.Errorf("reserve: %v", err)
				return
			}
			mu.Lock()
			totalReserved += results[0].Reserved
			mu.Unlock()
		}()
	}
	wg.Wait()

	if totalReserved != 5 {
		t.Fatalf("total reserved %d must equal starting stock 5", totalReserved)
	}

	var item models.InventoryItem
	if err := db.First(&item, "sku = ?", "TEE-M").Error; err != nil {
		t.Fatalf("load item: %v", err)
	}
	if item.AvailableQty != 0 {
		t.Fatalf("stock must end at zero and never go negative, got %d", item.AvailableQty)
	}
}

func TestRestockCreatesAndIncrements(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()

	item, err := Restock(ctx, db, "NEW-SKU", 10)
	if err != nil {
		t.Fatalf("restock new sku: %v", err)
	}
	if item.AvailableQty != 10 {
		t.Fatalf("expected 10, got %d", item.AvailableQty)
	}

	item, err = Restock(ctx, db, "NEW-SKU", 5)
	if err != nil {
		t.Fatalf("restock existing sku: %v", err)
	}
	if item.AvailableQty != 15 {
		t.Fatalf("expected 15, got %d", item.AvailableQty)
	}

	if _, err := Restock(ctx, db, "NEW-SKU", 0); err == nil {
		t.Fatal("expected error for non-positive qty")
	}
}

func TestLowStockOrdersByQuantity(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	seed(t, db,
		models.InventoryItem{SKU: "A", AvailableQty: 12},
		models.InventoryItem{SKU: "B", AvailableQty: 2},
		models.InventoryItem{SKU: "C", AvailableQty: 0},
		models.InventoryItem{SKU: "D", AvailableQty: 5},
	)

	items, err := LowStock(ctx, db, 5)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].SKU != "C" || items[1].SKU != "B" || items[2].SKU != "D" {
		t.Fatalf("unexpected ordering %v", items)
	}
}
