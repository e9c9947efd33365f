package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/config"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
)

// ConsentStore mutates the customers table. Both operations upsert. A
// phone with no record gets one created with the consent fields set.
type ConsentStore interface {
	RecordUnsubscribe(ctx context.Context, phone string) error
	RecordResubscribe(ctx context.Context, phone string) error
}

// MessageLog mutates the messages table. LogInbound always inserts;
// RecordDeliveryStatus updates by SID and inserts on miss, so callbacks
// arriving before any row for that SID are tolerated.
type MessageLog interface {
	LogInbound(ctx context.Context, phone, body, sid string) error
	RecordDeliveryStatus(ctx context.Context, sid, status, errMsg string) error
}

// Store is the full surface shared by the relational and spreadsheet
// backends. Put* are whole-record upserts used by the migrate command.
type Store interface {
	ConsentStore
	MessageLog

	ListCustomers(ctx context.Context) ([]models.Customer, error)
	ListMessages(ctx context.Context) ([]models.Message, error)

	PutCustomer(ctx context.Context, c models.Customer) error
	PutMessage(ctx context.Context, m models.Message) error

	Close() error
}

// Open builds the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := NewGormStore(sqlite.Open(cfg.DBPath))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		s, err := NewGormStore(postgres.Open(cfg.DatabaseURL))
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sheets":
		if cfg.SheetID == "" || cfg.ServiceAccountJSON == "" {
			return nil, fmt.Errorf("sheets backend requires SHEET_ID and SERVICE_ACCOUNT_JSON")
		}
		s, err := NewSheetStore(ctx, cfg.SheetID, []byte(cfg.ServiceAccountJSON))
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// isoNow is the timestamp format written to both backends, UTC with
// seconds precision: 2006-01-02T15:04:05Z.
func isoNow() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05Z")
}
