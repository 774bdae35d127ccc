package models

import "time"

// CartSlot 数据库后端的持久化槽（每个买家一行）
type CartSlot struct {
	Key       string    `gorm:"primaryKey;type:varchar(191)" json:"key"` // 槽键
	Payload   string    `gorm:"type:text" json:"payload"`                // 信封 JSON
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`                 // 更新时间
}

// TableName 指定表名
func (CartSlot) TableName() string {
	return "cart_slots"
}
