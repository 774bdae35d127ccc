package public

import (
	"strings"

	"github.com/mintcart/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListNotifications 获取当前待展示的通知
func (h *Handler) ListNotifications(c *gin.Context) {
	eng := h.sessionEngine(c)
	response.Success(c, eng.Notifier.List())
}

// DismissNotification 手动关闭单条通知
func (h *Handler) DismissNotification(c *gin.Context) {
	eng := h.sessionEngine(c)
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, response.CodeBadRequest, "invalid notification id")
		return
	}
	eng.Notifier.Dismiss(id)
	response.Success(c, nil)
}
