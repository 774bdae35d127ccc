package cart

import "errors"

var (
	// ErrInvalidItem 加购候选缺少必填字段或库存不足
	ErrInvalidItem = errors.New("cart item invalid")
)
