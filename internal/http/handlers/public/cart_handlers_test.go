package public

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mintcart/internal/checkout"
	"github.com/mintcart/internal/config"
	"github.com/mintcart/internal/provider"

	"github.com/gin-gonic/gin"
)

func setupCartAPI(t *testing.T) (*gin.Engine, *provider.Container) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Storage.Backend = "memory"
	cfg.Cart.ExpiryDays = 7
	cfg.Cart.PollIntervalMS = 3600000

	container := provider.NewContainer(context.Background(), cfg)
	t.Cleanup(container.Close)

	handler := New(container)
	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/cart", handler.GetCart)
	api.POST("/cart/items", handler.AddItem)
	api.PUT("/cart/items", handler.UpdateQuantity)
	api.DELETE("/cart/items", handler.RemoveItem)
	api.DELETE("/cart", handler.ClearCart)
	api.GET("/notifications", handler.ListNotifications)
	api.DELETE("/notifications/:id", handler.DismissNotification)
	api.POST("/checkout", handler.Checkout)
	return r, container
}

type apiResponse struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, session, body string) apiResponse {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set("X-Session-ID", session)
		req.Header.Set("X-Shopper-ID", "shopper-1")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("%s %s status %d", method, path, w.Code)
	}
	var resp apiResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (%s)", err, w.Body.String())
	}
	return resp
}

const addItemBody = `{
	"card_id": 42,
	"name": "Charizard",
	"quality": "NM",
	"finish": "foil",
	"language": "EN",
	"price": 120.50,
	"stock": 3,
	"quantity": 2
}`

func TestAddAndGetCart(t *testing.T) {
	r, _ := setupCartAPI(t)

	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", addItemBody)
	if resp.StatusCode != 0 {
		t.Fatalf("add item failed: %s", resp.Msg)
	}
	var added struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(resp.Data, &added); err != nil {
		t.Fatalf("unmarshal add response: %v", err)
	}
	if added.Outcome != "added" {
		t.Fatalf("outcome want added got %s", added.Outcome)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/cart", "session-a", "")
	var snapshot CartResponse
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if snapshot.ItemCount != 2 || len(snapshot.Items) != 1 {
		t.Fatalf("unexpected cart: %+v", snapshot)
	}
	if snapshot.Items[0].VariationKey != "NM-foil-EN" {
		t.Fatalf("variation key want NM-foil-EN got %s", snapshot.Items[0].VariationKey)
	}
}

func TestAddItemInvalidBody(t *testing.T) {
	r, _ := setupCartAPI(t)
	resp := doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", `{"name":"x"}`)
	if resp.StatusCode != 400 {
		t.Fatalf("expected bad request code, got %d", resp.StatusCode)
	}
}

func TestSecondSessionHydratesSharedSlot(t *testing.T) {
	r, _ := setupCartAPI(t)

	doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", addItemBody)

	resp := doJSON(t, r, http.MethodGet, "/api/v1/cart", "session-b", "")
	var snapshot CartResponse
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].Quantity != 2 {
		t.Fatalf("second session should hydrate the shared slot: %+v", snapshot)
	}
}

func TestUpdateRemoveClear(t *testing.T) {
	r, _ := setupCartAPI(t)
	doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", addItemBody)

	resp := doJSON(t, r, http.MethodPut, "/api/v1/cart/items", "session-a",
		`{"card_id":42,"variation_key":"NM-foil-EN","quantity":1}`)
	var snapshot CartResponse
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if snapshot.ItemCount != 1 {
		t.Fatalf("update quantity failed: %+v", snapshot)
	}

	resp = doJSON(t, r, http.MethodDelete, "/api/v1/cart/items?card_id=42&variation_key=NM-foil-EN", "session-a", "")
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(snapshot.Items) != 0 {
		t.Fatalf("remove item failed: %+v", snapshot)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", addItemBody)
	resp = doJSON(t, r, http.MethodDelete, "/api/v1/cart", "session-a", "")
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(snapshot.Items) != 0 {
		t.Fatalf("clear cart failed: %+v", snapshot)
	}
}

func TestCheckoutEndpoint(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`{"orderNo":"MC1001"}`))
	}))
	defer upstream.Close()

	r, container := setupCartAPI(t)
	submitter, err := checkout.NewHTTPSubmitter(checkout.Config{BaseURL: upstream.URL})
	if err != nil {
		t.Fatalf("NewHTTPSubmitter error: %v", err)
	}
	container.Submitter = submitter

	// 空车结账应报错
	resp := doJSON(t, r, http.MethodPost, "/api/v1/checkout", "session-a", "")
	if resp.StatusCode != 400 {
		t.Fatalf("empty cart checkout want 400 got %d", resp.StatusCode)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/cart/items", "session-a", addItemBody)
	resp = doJSON(t, r, http.MethodPost, "/api/v1/checkout", "session-a", "")
	if resp.StatusCode != 0 {
		t.Fatalf("checkout failed: %s", resp.Msg)
	}
	var placed struct {
		OrderNo string `json:"order_no"`
	}
	if err := json.Unmarshal(resp.Data, &placed); err != nil {
		t.Fatalf("unmarshal checkout response: %v", err)
	}
	if placed.OrderNo != "MC1001" {
		t.Fatalf("order no want MC1001 got %s", placed.OrderNo)
	}

	resp = doJSON(t, r, http.MethodGet, "/api/v1/cart", "session-a", "")
	var snapshot CartResponse
	if err := json.Unmarshal(resp.Data, &snapshot); err != nil {
		t.Fatalf("unmarshal cart: %v", err)
	}
	if len(snapshot.Items) != 0 {
		t.Fatalf("cart should be empty after checkout: %+v", snapshot)
	}

	// 成功通知应已入队
	resp = doJSON(t, r, http.MethodGet, "/api/v1/notifications", "session-a", "")
	if !strings.Contains(string(resp.Data), "Order placed successfully") {
		t.Fatalf("expected success notification, got %s", resp.Data)
	}
}

func TestSessionHeaderGeneratedWhenMissing(t *testing.T) {
	r, _ := setupCartAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if strings.TrimSpace(w.Header().Get("X-Session-ID")) == "" {
		t.Fatalf("missing generated session header")
	}
}
