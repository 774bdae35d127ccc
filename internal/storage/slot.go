package storage

import (
	"context"
	"errors"
)

var (
	ErrSlotNotFound = errors.New("cart slot not found")
	ErrUnavailable  = errors.New("cart storage unavailable")
)

// Slot 持久化槽：所有会话共享的唯一落盘位置
type Slot interface {
	// Read 读取信封字节；槽不存在时返回 ErrSlotNotFound
	Read(ctx context.Context) ([]byte, error)
	// Write 写入信封字节；origin 为写入方标识，用于回声过滤
	Write(ctx context.Context, payload []byte, origin string) error
	// Delete 删除槽；槽不存在视为成功
	Delete(ctx context.Context) error
}

// Watcher 变更订阅：支持推送通知的槽实现此接口
type Watcher interface {
	// Watch 订阅槽的写入通知，回调收到写入方 origin；返回取消订阅函数
	Watch(ctx context.Context, handler func(origin string)) (func(), error)
}
