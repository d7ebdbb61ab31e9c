package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
	"github.com/threadline-co/storefront-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:outbox_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.OutboxEvent{}); err != nil {
		t.Fatalf("migrate outbox: %v", err)
	}
	return db
}

func TestEmitStoresEnvelopeInsideTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	service := NewService(NewRepository(db), nil)
	orderID := uuid.NewString()

	err := db.Transaction(func(tx *gorm.DB) error {
		return service.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			Data:          map[string]any{"orderId": orderID, "status": "pending"},
		})
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	var row models.OutboxEvent
	if err := db.First(&row).Error; err != nil {
		t.Fatalf("load outbox row: %v", err)
	}
	if row.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected event type %q", row.EventType)
	}
	if row.AggregateID != orderID {
		t.Fatalf("unexpected aggregate id %q", row.AggregateID)
	}
	if row.PublishedAt != nil {
		t.Fatal("new rows must start unpublished")
	}

	var envelope PayloadEnvelope
	if err := json.Unmarshal(row.Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Version != 1 {
		t.Fatalf("unexpected envelope version %d", envelope.Version)
	}
	if envelope.EventID == "" {
		t.Fatal("expected event id to be assigned")
	}
	if envelope.OccurredAt.IsZero() {
		t.Fatal("expected occurredAt to be set")
	}
}

func TestEmitRequiresTransaction(t *testing.T) {
	t.Parallel()

	service := NewService(NewRepository(newTestDB(t)), nil)
	if err := service.Emit(context.Background(), nil, DomainEvent{}); err == nil {
		t.Fatal("expected error without transaction")
	}
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	service := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := service.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   uuid.NewString(),
			Version:       1,
			Data:          map[string]any{"ok": true},
		}); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	if err == nil {
		t.Fatal("expected forced rollback error")
	}

	var count int64
	if err := db.Model(&models.OutboxEvent{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no rows after rollback, got %d", count)
	}
}

func TestFetchUnpublishedSkipsExhaustedRows(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	service := NewService(repo, nil)

	ids := []string{uuid.NewString(), uuid.NewString()}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := service.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventOrderCreated,
				AggregateType: enums.AggregateOrder,
				AggregateID:   id,
				Version:       1,
				Data:          map[string]any{"orderId": id},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}

	rows, err := repo.FetchUnpublished(nil, 10, 5)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 unpublished rows, got %d", len(rows))
	}

	// fail one row past the attempt ceiling
	for i := 0; i < 5; i++ {
		if err := repo.MarkFailed(nil, rows[0].ID, errors.New("publish timeout")); err != nil {
			t.Fatalf("mark failed: %v", err)
		}
	}
	if err := repo.MarkPublished(nil, rows[1].ID); err != nil {
		t.Fatalf("mark published: %v", err)
	}

	remaining, err := repo.FetchUnpublished(nil, 10, 5)
	if err != nil {
		t.Fatalf("fetch after updates: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no publishable rows, got %d", len(remaining))
	}

	var failed models.OutboxEvent
	if err := db.First(&failed, "id = ?", rows[0].ID).Error; err != nil {
		t.Fatalf("load failed row: %v", err)
	}
	if failed.AttemptCount != 5 {
		t.Fatalf("expected attempt_count 5, got %d", failed.AttemptCount)
	}
	if failed.LastError == nil || *failed.LastError != "publish timeout" {
		t.Fatal("expected last_error recorded")
	}
}
