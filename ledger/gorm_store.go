package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AccountRecord - accounts table row
type AccountRecord struct {
	Address   string    `gorm:"primaryKey;size:44" json:"address"`
	Lamports  uint64    `json:"lamports"`
	Owner     string    `gorm:"index;size:44" json:"owner"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (AccountRecord) TableName() string {
	return "accounts"
}

// OpenSQLite opens (or creates) a sqlite database and migrates the
// accounts and command history tables.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	// sqlite has a single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if err := db.Exec(pragma).Error; err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := db.AutoMigrate(&AccountRecord{}, &CommandHistory{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return db, nil
}

// GormStore persists accounts through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, address solana.PublicKey) (*Account, error) {
	var rec AccountRecord
	err := s.db.WithContext(ctx).First(&rec, "address = ?", address.String()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}

	owner, err := solana.PublicKeyFromBase58(rec.Owner)
	if err != nil {
		return nil, fmt.Errorf("corrupt owner of %s: %w", rec.Address, err)
	}
	return &Account{
		Address:  address,
		Lamports: rec.Lamports,
		Owner:    owner,
		Data:     rec.Data,
	}, nil
}

func (s *GormStore) Apply(ctx context.Context, puts []*Account, deletes []solana.PublicKey) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, acc := range puts {
			rec := AccountRecord{
				Address:  acc.Address.String(),
				Lamports: acc.Lamports,
				Owner:    acc.Owner.String(),
				Data:     acc.Data,
			}
			if err := tx.Save(&rec).Error; err != nil {
				return fmt.Errorf("failed to save account %s: %w", rec.Address, err)
			}
		}
		for _, address := range deletes {
			if err := tx.Delete(&AccountRecord{}, "address = ?", address.String()).Error; err != nil {
				return fmt.Errorf("failed to delete account %s: %w", address, err)
			}
		}
		return nil
	})
}
