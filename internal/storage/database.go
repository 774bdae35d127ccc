package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mintcart/internal/models"

	"gorm.io/gorm"
)

// DBSlot 数据库后端的持久化槽（仅轮询，无推送通知）
type DBSlot struct {
	db  *gorm.DB
	key string
}

// NewDBSlot 创建数据库槽
func NewDBSlot(db *gorm.DB, shopperKey string) *DBSlot {
	return &DBSlot{db: db, key: shopperKey}
}

// Read 读取信封字节
func (s *DBSlot) Read(ctx context.Context) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, ErrUnavailable
	}
	var row models.CartSlot
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return []byte(row.Payload), nil
}

// Write 写入信封字节
func (s *DBSlot) Write(ctx context.Context, payload []byte, origin string) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	_ = origin // 数据库后端无推送通道，origin 仅对推送通知有意义
	now := time.Now()
	var existing models.CartSlot
	err := s.db.WithContext(ctx).Where("key = ?", s.key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row := models.CartSlot{Key: s.key, Payload: string(payload), UpdatedAt: now}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	updates := map[string]interface{}{
		"payload":    string(payload),
		"updated_at": now,
	}
	if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Delete 删除槽
func (s *DBSlot) Delete(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrUnavailable
	}
	if err := s.db.WithContext(ctx).Where("key = ?", s.key).Delete(&models.CartSlot{}).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
