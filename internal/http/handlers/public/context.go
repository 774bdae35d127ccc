package public

import (
	"strings"

	"github.com/mintcart/internal/engine"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	sessionIDHeader = "X-Session-ID"
	shopperIDHeader = "X-Shopper-ID"
)

// sessionEngine 解析会话标识并取出（或装配）对应的购物车引擎。
// 无会话头时生成新会话并通过响应头回传；买家键缺省等于会话键，
// 即该会话独享一个槽。
func (h *Handler) sessionEngine(c *gin.Context) *engine.Engine {
	sessionID := strings.TrimSpace(c.GetHeader(sessionIDHeader))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c.Header(sessionIDHeader, sessionID)

	shopperKey := strings.TrimSpace(c.GetHeader(shopperIDHeader))
	if shopperKey == "" {
		shopperKey = sessionID
	}
	return h.container.Engines.Get(sessionID, shopperKey)
}
