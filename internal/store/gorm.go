package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/consent"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStore is the relational backend. Customers are keyed by the
// canonical digits-only phone; messages carry a non-unique sid index so
// repeated inbound rows with the same sid remain plain inserts.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(dialector gorm.Dialector) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Idempotent schema creation at startup.
	if err := db.AutoMigrate(&models.Customer{}, &models.Message{}); err != nil {
		return nil, fmt.Errorf("failed to run auto-migration: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) RecordUnsubscribe(ctx context.Context, phone string) error {
	now := isoNow()
	cust := models.Customer{
		Phone:      consent.CanonicalDigits(phone),
		DNC:        true,
		OptoutDate: now,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"dnc":         true,
			"optout_date": now,
		}),
	}).Create(&cust).Error
}

func (s *GormStore) RecordResubscribe(ctx context.Context, phone string) error {
	now := isoNow()
	cust := models.Customer{
		Phone:       consent.CanonicalDigits(phone),
		DNC:         false,
		OptinDate:   now,
		OptinSource: "Resubscribe",
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"dnc":          false,
			"optin_date":   now,
			"optin_source": "Resubscribe",
		}),
	}).Create(&cust).Error
}

func (s *GormStore) LogInbound(ctx context.Context, phone, body, sid string) error {
	msg := models.Message{
		SID:    sid,
		Date:   isoNow(),
		Phone:  phone,
		Type:   models.TypeInbound,
		Body:   body,
		Status: "received",
	}
	return s.db.WithContext(ctx).Create(&msg).Error
}

func (s *GormStore) RecordDeliveryStatus(ctx context.Context, sid, status, errMsg string) error {
	// Only the earliest row with this sid is touched, same as the
	// spreadsheet backend's row scan.
	var existing models.Message
	err := s.db.WithContext(ctx).Where("sid = ?", sid).Order("id").First(&existing).Error
	if err == nil {
		return s.db.WithContext(ctx).Model(&models.Message{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"status": status,
				"error":  errMsg,
			}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Status arrived before any row for this sid existed.
	msg := models.Message{
		SID:    sid,
		Date:   isoNow(),
		Type:   models.TypeStatusUpdate,
		Status: status,
		Error:  errMsg,
	}
	return s.db.WithContext(ctx).Create(&msg).Error
}

func (s *GormStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	var customers []models.Customer
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&customers).Error; err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *GormStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	var messages []models.Message
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (s *GormStore) PutCustomer(ctx context.Context, c models.Customer) error {
	c.ID = 0
	c.Phone = consent.CanonicalDigits(c.Phone)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "phone"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"name":         c.Name,
			"dnc":          c.DNC,
			"optin_date":   c.OptinDate,
			"optin_source": c.OptinSource,
			"optout_date":  c.OptoutDate,
		}),
	}).Create(&c).Error
}

func (s *GormStore) PutMessage(ctx context.Context, m models.Message) error {
	m.ID = 0
	if m.SID != "" {
		res := s.db.WithContext(ctx).Model(&models.Message{}).
			Where("sid = ?", m.SID).
			Updates(map[string]interface{}{
				"date":    m.Date,
				"phone":   m.Phone,
				"type":    m.Type,
				"message": m.Body,
				"status":  m.Status,
				"error":   m.Error,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
