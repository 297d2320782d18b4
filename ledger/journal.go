package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Command status
const (
	StatusExecuted = "executed"
	StatusRejected = "rejected"
	StatusFailed   = "failed"
)

// CommandHistory - one executed or rejected command
type CommandHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CommandID    string    `gorm:"uniqueIndex;size:36" json:"command_id"`
	Program      string    `gorm:"index;size:16" json:"program"`
	Command      string    `gorm:"index;size:32" json:"command"`
	Signer       string    `gorm:"index;size:44" json:"signer"`
	Args         string    `gorm:"type:text" json:"args,omitempty"`
	Status       string    `gorm:"index;size:20" json:"status"`
	ErrorCode    *int      `json:"error_code,omitempty"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	LedgerTime   int64     `json:"ledger_time"`
	CreatedAt    time.Time `json:"created_at"`
}

func (CommandHistory) TableName() string {
	return "command_histories"
}

// Journal records every command submitted to the engines.
type Journal interface {
	Record(ctx context.Context, entry *CommandHistory) error
	History(ctx context.Context, signer string, limit int) ([]CommandHistory, error)
}

// GormJournal stores history in the command_histories table.
type GormJournal struct {
	db *gorm.DB
}

func NewGormJournal(db *gorm.DB) *GormJournal {
	return &GormJournal{db: db}
}

func (j *GormJournal) Record(ctx context.Context, entry *CommandHistory) error {
	if err := j.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record command: %w", err)
	}
	return nil
}

// History - newest first
func (j *GormJournal) History(ctx context.Context, signer string, limit int) ([]CommandHistory, error) {
	var histories []CommandHistory
	err := j.db.WithContext(ctx).Where("signer = ?", signer).
		Order("id DESC").
		Limit(limit).
		Find(&histories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return histories, nil
}

// MemoryJournal keeps history in memory.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []CommandHistory
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) Record(_ context.Context, entry *CommandHistory) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	entry.ID = uint(len(j.entries) + 1)
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	j.entries = append(j.entries, *entry)
	return nil
}

func (j *MemoryJournal) History(_ context.Context, signer string, limit int) ([]CommandHistory, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []CommandHistory
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if j.entries[i].Signer == signer {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}
