package models

// SchemaVersion 当前持久化信封的结构版本
const SchemaVersion = 1

// Envelope 持久化信封（写入存储槽的完整形态）
type Envelope struct {
	Cart      []LineItem `json:"cart"`      // 行项快照
	Timestamp int64      `json:"timestamp"` // 写入时钟（epoch 毫秒），兼做跨会话排序依据
	Version   int        `json:"version"`   // 结构版本
}
