package models

import "time"

// 通知级别常量
const (
	SeverityInfo    = "info"
	SeveritySuccess = "success"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notification 瞬时用户通知（仅存于内存，到期自删）
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeSeverity 归一化通知级别，未知值回退为 info
func NormalizeSeverity(severity string) string {
	switch severity {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return severity
	default:
		return SeverityInfo
	}
}
