package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mintcart/internal/cart"
	"github.com/mintcart/internal/http/response"
	"github.com/mintcart/internal/models"

	"github.com/gin-gonic/gin"
)

// AddItemRequest 加购请求
type AddItemRequest struct {
	CardID     uint    `json:"card_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	ImageURL   string  `json:"image_url"`
	SetName    string  `json:"set_name"`
	CardNumber string  `json:"card_number"`
	GameName   string  `json:"game_name"`
	Rarity     string  `json:"rarity"`
	Quality    string  `json:"quality"`
	Finish     string  `json:"finish"`
	Language   string  `json:"language"`
	Price      float64 `json:"price"`
	Stock      int     `json:"stock"`
	Quantity   int     `json:"quantity"`
}

// UpdateQuantityRequest 改数量请求
type UpdateQuantityRequest struct {
	CardID       uint   `json:"card_id" binding:"required"`
	VariationKey string `json:"variation_key"`
	Quantity     int    `json:"quantity"`
}

// CartResponse 购物车响应
type CartResponse struct {
	Items     []models.LineItem `json:"items"`
	Total     models.Money      `json:"total"`
	ItemCount int               `json:"item_count"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	eng := h.sessionEngine(c)
	response.Success(c, cartSnapshot(eng.Store))
}

// AddItem 加购
func (h *Handler) AddItem(c *gin.Context) {
	eng := h.sessionEngine(c)
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeBadRequest, "invalid request body")
		return
	}

	candidate := models.LineItem{
		CardID:       req.CardID,
		VariationKey: models.BuildVariationKey(req.Quality, req.Finish, req.Language),
		Name:         req.Name,
		ImageURL:     req.ImageURL,
		SetName:      req.SetName,
		CardNumber:   req.CardNumber,
		GameName:     req.GameName,
		Rarity:       req.Rarity,
		Quality:      req.Quality,
		Finish:       req.Finish,
		Language:     req.Language,
		Price:        models.NewMoneyFromFloat(req.Price),
		Stock:        req.Stock,
	}
	outcome, err := eng.Store.AddItem(candidate, req.Quantity)
	if err != nil {
		if errors.Is(err, cart.ErrInvalidItem) {
			response.Error(c, response.CodeBadRequest, "cart item invalid")
			return
		}
		response.Error(c, response.CodeInternal, "add item failed")
		return
	}

	response.Success(c, gin.H{
		"outcome": outcomeLabel(outcome),
		"cart":    cartSnapshot(eng.Store),
	})
}

// UpdateQuantity 改数量（0 及以下等价于删除）
func (h *Handler) UpdateQuantity(c *gin.Context) {
	eng := h.sessionEngine(c)
	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, response.CodeBadRequest, "invalid request body")
		return
	}
	eng.Store.UpdateQuantity(req.CardID, req.VariationKey, req.Quantity)
	response.Success(c, cartSnapshot(eng.Store))
}

// RemoveItem 删除行项
func (h *Handler) RemoveItem(c *gin.Context) {
	eng := h.sessionEngine(c)
	cardID, err := strconv.ParseUint(strings.TrimSpace(c.Query("card_id")), 10, 64)
	if err != nil || cardID == 0 {
		response.Error(c, response.CodeBadRequest, "invalid card_id")
		return
	}
	eng.Store.RemoveItem(uint(cardID), strings.TrimSpace(c.Query("variation_key")))
	response.Success(c, cartSnapshot(eng.Store))
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	eng := h.sessionEngine(c)
	eng.Store.Clear()
	response.Success(c, cartSnapshot(eng.Store))
}

func cartSnapshot(store *cart.Store) CartResponse {
	items := store.Items()
	if items == nil {
		items = []models.LineItem{}
	}
	return CartResponse{
		Items:     items,
		Total:     store.Total(),
		ItemCount: store.ItemCount(),
	}
}

func outcomeLabel(outcome cart.AddOutcome) string {
	switch outcome {
	case cart.AddOutcomeAdded:
		return "added"
	case cart.AddOutcomeMerged:
		return "merged"
	case cart.AddOutcomePartial:
		return "partial"
	case cart.AddOutcomeAtLimit:
		return "at_stock_limit"
	default:
		return "unknown"
	}
}
