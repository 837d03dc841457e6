package database

import (
	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM. The schema is
// not touched here; callers run Migrate explicitly.
func NewConnection(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate auto-migrates every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Entity{},
		&model.ApprovalGroup{},
		&model.User{},
		&model.RefreshToken{},
		&model.AnalyticalCatalog{},
		&model.AnalyticalProject{},
		&model.AnalyticalActivity{},
		&model.AnalyticalCode{},
		&model.PurchaseRequest{},
		&model.RequestItem{},
		&model.Quote{},
		&model.QuoteItem{},
		&model.RequestApproval{},
		&model.Attachment{},
		&model.AuditLog{},
		&model.Notification{},
	)
}
