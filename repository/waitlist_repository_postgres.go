package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pledg/domain"
)

type waitlistRow struct {
	ID         string  `gorm:"primaryKey;type:uuid"`
	Name       string  `gorm:"not null"`
	Email      *string `gorm:"uniqueIndex"`
	Phone      string  `gorm:"not null;uniqueIndex"`
	LoanAmount float64 `gorm:"not null"`
	TermMonths int     `gorm:"not null"`
	Notes      string
	Source     string    `gorm:"not null;default:website"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (waitlistRow) TableName() string { return "waitlist_entries" }

// ConnectPostgres opens a pooled GORM connection and migrates the waitlist
// table.
func ConnectPostgres(ctx context.Context, dsn string, maxConns int) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := db.WithContext(ctx).AutoMigrate(&waitlistRow{}); err != nil {
		return nil, fmt.Errorf("migrate waitlist table: %w", err)
	}
	return db, nil
}

type WaitlistRepositoryPostgres struct {
	db *gorm.DB
}

func NewWaitlistRepositoryPostgres(db *gorm.DB) *WaitlistRepositoryPostgres {
	return &WaitlistRepositoryPostgres{db: db}
}

func (r *WaitlistRepositoryPostgres) FindByContact(
	ctx context.Context,
	phone, email string,
) (domain.WaitlistEntry, bool, error) {
	query := r.db.WithContext(ctx).Where("phone = ?", phone)
	if email != "" {
		query = query.Or("email = ?", email)
	}

	var row waitlistRow
	err := query.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.WaitlistEntry{}, false, nil
	}
	if err != nil {
		return domain.WaitlistEntry{}, false, fmt.Errorf("find waitlist entry: %w", err)
	}
	return rowToEntry(row), true, nil
}

func (r *WaitlistRepositoryPostgres) Create(ctx context.Context, entry domain.WaitlistEntry) error {
	row := entryToRow(entry)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

func (r *WaitlistRepositoryPostgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&waitlistRow{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return n, nil
}

func entryToRow(entry domain.WaitlistEntry) waitlistRow {
	row := waitlistRow{
		ID:         entry.ID,
		Name:       entry.Name,
		Phone:      entry.Phone,
		LoanAmount: entry.LoanAmount,
		TermMonths: entry.TermMonths,
		Notes:      entry.Notes,
		Source:     entry.Source,
		CreatedAt:  entry.CreatedAt,
	}
	if entry.Email != "" {
		email := entry.Email
		row.Email = &email
	}
	return row
}

func rowToEntry(row waitlistRow) domain.WaitlistEntry {
	entry := domain.WaitlistEntry{
		ID:         row.ID,
		Name:       row.Name,
		Phone:      row.Phone,
		LoanAmount: row.LoanAmount,
		TermMonths: row.TermMonths,
		Notes:      row.Notes,
		Source:     row.Source,
		CreatedAt:  row.CreatedAt,
	}
	if row.Email != nil {
		entry.Email = *row.Email
	}
	return entry
}
