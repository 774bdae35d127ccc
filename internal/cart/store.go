package cart

import (
	"strings"
	"sync"
	"time"

	"github.com/mintcart/internal/models"

	"github.com/shopspring/decimal"
)

// Saver 写透接口。每次变更完成后同步落盘；落盘失败由实现方消化，
// 不得回传给购物车（内存态在本会话内始终权威）。
type Saver interface {
	Save(items []models.LineItem)
	Wipe()
}

// AddOutcome 加购结果码
type AddOutcome int

const (
	AddOutcomeAdded   AddOutcome = iota // 新增行项
	AddOutcomeMerged                    // 全量并入已有行项
	AddOutcomePartial                   // 并入/新增但被库存截断
	AddOutcomeAtLimit                   // 已达库存上限，数量未增加
)

// Store 单会话购物车。行项按 (CardID, VariationKey) 唯一，
// 保持插入顺序；所有变更经 Saver 写透，读取不触达存储。
type Store struct {
	mu    sync.Mutex
	items []models.LineItem
	saver Saver
}

// NewStore 创建购物车
func NewStore(saver Saver) *Store {
	return &Store{saver: saver}
}

// AddItem 加购。同键行项合并并按 min(已有+新增, 库存) 截断；
// 新行项数量截断至 [1, 库存]。候选缺卡牌ID、名称、价格或库存不足时拒绝。
func (s *Store) AddItem(candidate models.LineItem, quantity int) (AddOutcome, error) {
	if candidate.CardID == 0 || strings.TrimSpace(candidate.Name) == "" ||
		candidate.Price.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidItem
	}
	if candidate.Stock <= 0 {
		return 0, ErrInvalidItem
	}
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if !s.items[i].Matches(candidate.CardID, candidate.VariationKey) {
			continue
		}
		existing := &s.items[i]
		requested := existing.Quantity + quantity
		merged := requested
		if merged > candidate.Stock {
			merged = candidate.Stock
		}
		outcome := AddOutcomeMerged
		switch {
		case merged == existing.Quantity:
			outcome = AddOutcomeAtLimit
		case merged < requested:
			outcome = AddOutcomePartial
		}
		existing.Quantity = merged
		existing.Stock = candidate.Stock
		s.writeThrough()
		return outcome, nil
	}

	item := candidate
	outcome := AddOutcomeAdded
	if quantity > item.Stock {
		quantity = item.Stock
		outcome = AddOutcomePartial
	}
	item.Quantity = quantity
	item.AddedAt = time.Now().UnixMilli()
	item.OriginalPrice = nil
	item.CurrentPrice = nil
	item.PriceChanged = false
	item.CurrentStock = nil
	item.OutOfStock = false
	s.items = append(s.items, item)
	s.writeThrough()
	return outcome, nil
}

// UpdateQuantity 改数量。0 及以下等价于删除。
// 此路径刻意不做库存上限截断：步进器已按库存封顶，校对修正也走这里。
func (s *Store) UpdateQuantity(cardID uint, variationKey string, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(cardID, variationKey)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Matches(cardID, variationKey) {
			s.items[i].Quantity = quantity
			s.writeThrough()
			return
		}
	}
}

// RemoveItem 删除行项；不存在时为空操作
func (s *Store) RemoveItem(cardID uint, variationKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Matches(cardID, variationKey) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.writeThrough()
			return
		}
	}
}

// Clear 清空购物车并立即删除持久化槽
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	if s.saver != nil {
		s.saver.Wipe()
	}
}

// ReplaceAll 整体替换行项（会话水合与跨会话合并专用，不写透）
func (s *Store) ReplaceAll(items []models.LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make([]models.LineItem, len(items))
	copy(s.items, items)
}

// GetItem 查找行项
func (s *Store) GetItem(cardID uint, variationKey string) (models.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Matches(cardID, variationKey) {
			return s.items[i], true
		}
	}
	return models.LineItem{}, false
}

// HasItem 判断行项是否存在
func (s *Store) HasItem(cardID uint, variationKey string) bool {
	_, ok := s.GetItem(cardID, variationKey)
	return ok
}

// Items 返回行项快照（插入顺序）
func (s *Store) Items() []models.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LineItem, len(s.items))
	copy(out, s.items)
	return out
}

// Total 购物车合计（有当前价的行项按当前价计）
func (s *Store) Total() models.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := models.Money{}
	for i := range s.items {
		total = total.Add(s.items[i].Subtotal())
	}
	return total
}

// ItemCount 购物车件数合计
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.items {
		count += s.items[i].Quantity
	}
	return count
}

// ApplyPriceDrift 批注价格漂移。行项已不在（或变体已换）时放弃写回。
func (s *Store) ApplyPriceDrift(cardID uint, variationKey string, current models.Money) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if !s.items[i].Matches(cardID, variationKey) {
			continue
		}
		original := s.items[i].Price
		s.items[i].OriginalPrice = &original
		s.items[i].CurrentPrice = &current
		s.items[i].PriceChanged = true
		s.writeThrough()
		return true
	}
	return false
}

// ApplyStockShortfall 批注库存不足。行项已不在时放弃写回。
func (s *Store) ApplyStockShortfall(cardID uint, variationKey string, currentStock int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if !s.items[i].Matches(cardID, variationKey) {
			continue
		}
		stock := currentStock
		s.items[i].CurrentStock = &stock
		s.items[i].OutOfStock = true
		s.writeThrough()
		return true
	}
	return false
}

// PruneExpired 移除加入时间早于 cutoff（epoch 毫秒）的行项，返回移除数
func (s *Store) PruneExpired(cutoffMilli int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.items[:0]
	removed := 0
	for i := range s.items {
		if s.items[i].AddedAt < cutoffMilli {
			removed++
			continue
		}
		kept = append(kept, s.items[i])
	}
	s.items = kept
	if removed > 0 {
		s.writeThrough()
	}
	return removed
}

// writeThrough 变更后同步落盘；调用方须持有锁
func (s *Store) writeThrough() {
	if s.saver == nil {
		return
	}
	snapshot := make([]models.LineItem, len(s.items))
	copy(snapshot, s.items)
	s.saver.Save(snapshot)
}
