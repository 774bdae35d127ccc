package models

import (
	"strings"
	"time"
)

// LineItem 购物车行项（按卡牌 + 变体唯一）
type LineItem struct {
	CardID       uint   `json:"cardId"`       // 卡牌ID
	VariationKey string `json:"variationKey"` // 变体键（品相-印刷-语言）
	Name         string `json:"name"`         // 卡牌名称（加入时快照）
	ImageURL     string `json:"imageUrl"`     // 图片地址
	SetName      string `json:"setName"`      // 系列名称
	CardNumber   string `json:"cardNumber"`   // 卡牌编号
	GameName     string `json:"gameName"`     // 所属游戏
	Rarity       string `json:"rarity"`       // 稀有度
	Quality      string `json:"quality"`      // 品相
	Finish       string `json:"finish"`       // 印刷工艺
	Language     string `json:"language"`     // 语言
	Price        Money  `json:"price"`        // 加入时单价
	Stock        int    `json:"stock"`        // 最近已知库存上限
	Quantity     int    `json:"quantity"`     // 数量
	AddedAt      int64  `json:"addedAt"`      // 加入时间（epoch 毫秒）

	// 校对批注（仅在价格/库存发生漂移时出现）
	OriginalPrice *Money `json:"originalPrice,omitempty"` // 漂移前单价
	CurrentPrice  *Money `json:"currentPrice,omitempty"`  // 当前目录单价
	PriceChanged  bool   `json:"priceChanged,omitempty"`  // 价格是否漂移
	CurrentStock  *int   `json:"currentStock,omitempty"`  // 当前目录库存
	OutOfStock    bool   `json:"outOfStock,omitempty"`    // 库存是否不足
}

// BuildVariationKey 拼接变体键
func BuildVariationKey(quality, finish, language string) string {
	parts := []string{
		strings.TrimSpace(quality),
		strings.TrimSpace(finish),
		strings.TrimSpace(language),
	}
	return strings.Join(parts, "-")
}

// Matches 判断是否为同一行项（卡牌 + 变体）
func (i LineItem) Matches(cardID uint, variationKey string) bool {
	return i.CardID == cardID && i.VariationKey == variationKey
}

// UnitPrice 计价单价（有当前价时优先）
func (i LineItem) UnitPrice() Money {
	if i.CurrentPrice != nil {
		return *i.CurrentPrice
	}
	return i.Price
}

// Subtotal 行项小计
func (i LineItem) Subtotal() Money {
	return i.UnitPrice().MulInt(i.Quantity)
}

// AddedTime 加入时间
func (i LineItem) AddedTime() time.Time {
	return time.UnixMilli(i.AddedAt)
}
