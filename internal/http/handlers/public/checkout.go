package public

import (
	"errors"

	"github.com/mintcart/internal/checkout"
	"github.com/mintcart/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Checkout 提交当前购物车整车快照下单
func (h *Handler) Checkout(c *gin.Context) {
	eng := h.sessionEngine(c)
	if h.container.Submitter == nil {
		response.Error(c, response.CodeInternal, "checkout is not configured")
		return
	}
	svc := checkout.NewService(eng.Store, h.container.Submitter, eng.Notifier)

	orderNo, err := svc.Checkout(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, checkout.ErrCartEmpty):
			response.Error(c, response.CodeBadRequest, "cart is empty")
		case errors.Is(err, checkout.ErrResponseInvalid):
			response.Error(c, response.CodeUpstreamFailed, "order service returned invalid response")
		default:
			response.Error(c, response.CodeUpstreamFailed, "order submit failed, your cart is unchanged")
		}
		return
	}

	response.Success(c, gin.H{"order_no": orderNo})
}
