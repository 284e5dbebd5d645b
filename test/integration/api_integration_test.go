package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JeonghakHeo/Proshop-again/internal/handler"
	"github.com/JeonghakHeo/Proshop-again/internal/model"
	"github.com/JeonghakHeo/Proshop-again/internal/notification"
	"github.com/JeonghakHeo/Proshop-again/internal/pricing"
	"github.com/JeonghakHeo/Proshop-again/internal/repository"
	"github.com/JeonghakHeo/Proshop-again/internal/router"
	"github.com/JeonghakHeo/Proshop-again/internal/service"
)

const testAPIKey = "test-api-key"

func setupTestServer(t *testing.T, testDB *TestDB) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	// Initialize repositories
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	rules := pricing.Rules{
		Currency:              "USD",
		TaxRate:               decimal.RequireFromString("0.05"),
		ShippingFee:           decimal.RequireFromString("10.00"),
		FreeShippingThreshold: decimal.RequireFromString("100"),
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, rules, notification.NopSink{}, logger)

	// Initialize handlers
	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	configHandler := handler.NewConfigHandler("test-client-id", logger)

	// Create router
	return router.New(productHandler, orderHandler, configHandler, testAPIKey, logger)
}

// doRequest performs an authenticated request as the given user.
func doRequest(server http.Handler, method, target string, body []byte, userID uuid.UUID, admin bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("X-User-ID", userID.String())
	if admin {
		req.Header.Set("X-User-Admin", "true")
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func orderRequestBody(t *testing.T) []byte {
	t.Helper()

	body, err := json.Marshal(&model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: "P001", Qty: 1},
			{ProductID: "P002", Qty: 1},
		},
		ShippingAddress: model.ShippingAddress{
			Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
		},
		PaymentMethod: "paypal",
	})
	require.NoError(t, err)
	return body
}

func payBody(amount string) []byte {
	return []byte(`{
		"id": "5O190127TN364715T",
		"status": "COMPLETED",
		"update_time": "2024-03-01T10:00:00Z",
		"amount": "` + amount + `",
		"currency": "USD",
		"payer": {"email_address": "buyer@example.com"}
	}`)
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)
	userID := uuid.New()

	t.Run("GET /api/products returns all products", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doRequest(server, http.MethodGet, "/api/products", nil, userID, false)

		assert.Equal(t, http.StatusOK, w.Code)

		var products []model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
		assert.Len(t, products, 5)
	})

	t.Run("GET /api/products with pagination", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doRequest(server, http.MethodGet, "/api/products?limit=2&offset=0", nil, userID, false)

		assert.Equal(t, http.StatusOK, w.Code)

		var products []model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&products))
		assert.Len(t, products, 2)
	})

	t.Run("GET /api/products/{id} returns specific product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		SeedProducts(t, testDB.Pool)

		w := doRequest(server, http.MethodGet, "/api/products/P001", nil, userID, false)

		assert.Equal(t, http.StatusOK, w.Code)

		var product model.Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&product))
		assert.Equal(t, "P001", product.ID)
		assert.Equal(t, "Test Keyboard", product.Name)
	})

	t.Run("GET /api/products/{id} returns 404 for non-existent product", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		w := doRequest(server, http.MethodGet, "/api/products/P999", nil, userID, false)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GET /api/products without API key returns 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("GET /health returns 200 without API key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("GET /api/config/pay returns client ID", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/config/pay", nil, userID, false)

		assert.Equal(t, http.StatusOK, w.Code)

		var cfg map[string]string
		require.NoError(t, json.NewDecoder(w.Body).Decode(&cfg))
		assert.Equal(t, "test-client-id", cfg["clientId"])
	})
}

func TestOrderLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)

	customerID := uuid.New()
	adminID := uuid.New()

	// Create: items 60 + 50 land above the free shipping threshold.
	w := doRequest(server, http.MethodPost, "/api/orders", orderRequestBody(t), customerID, false)
	require.Equal(t, http.StatusCreated, w.Code)

	var order model.Order
	require.NoError(t, json.NewDecoder(w.Body).Decode(&order))
	assert.Equal(t, "110.00", order.ItemsPrice.StringFixed(2))
	assert.Equal(t, "0.00", order.ShippingPrice.StringFixed(2))
	assert.Equal(t, "5.50", order.TaxPrice.StringFixed(2))
	assert.Equal(t, "115.50", order.TotalPrice.StringFixed(2))
	assert.False(t, order.IsPaid)

	orderPath := "/api/orders/" + order.ID.String()

	t.Run("Stranger cannot read the order", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, orderPath, nil, uuid.New(), false)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Pay with wrong amount is rejected", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/pay", payBody("115.49"), customerID, false)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		// The order is untouched.
		w = doRequest(server, http.MethodGet, orderPath, nil, customerID, false)
		require.Equal(t, http.StatusOK, w.Code)
		var got model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.False(t, got.IsPaid)
	})

	t.Run("Sent before payment is rejected", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/sent", nil, adminID, true)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Pay with exact amount succeeds", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/pay", payBody("115.50"), customerID, false)
		require.Equal(t, http.StatusOK, w.Code)

		var got model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.True(t, got.IsPaid)
		require.NotNil(t, got.PaidAt)
		require.NotNil(t, got.PaymentResult)
		assert.Equal(t, "5O190127TN364715T", got.PaymentResult.ExternalID)
	})

	t.Run("Second payment is rejected", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/pay", payBody("115.50"), customerID, false)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Non-admin cannot mark sent", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/sent", nil, customerID, false)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Deliver before sent is rejected", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/deliver", nil, adminID, true)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Admin marks sent then delivered", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/sent", nil, adminID, true)
		require.Equal(t, http.StatusOK, w.Code)

		var got model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.True(t, got.IsSent)
		assert.Equal(t, model.StatusSent, got.Status())

		w = doRequest(server, http.MethodPut, orderPath+"/deliver", nil, adminID, true)
		require.Equal(t, http.StatusOK, w.Code)

		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.True(t, got.IsDelivered)
		assert.Equal(t, model.StatusDelivered, got.Status())
	})

	t.Run("Repeated sent is rejected", func(t *testing.T) {
		w := doRequest(server, http.MethodPut, orderPath+"/sent", nil, adminID, true)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Owner sees order under mine", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/orders/mine", nil, customerID, false)
		require.Equal(t, http.StatusOK, w.Code)

		var orders []model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
		require.Len(t, orders, 1)
		assert.Equal(t, order.ID, orders[0].ID)
	})

	t.Run("Admin lists all orders", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/orders", nil, adminID, true)
		require.Equal(t, http.StatusOK, w.Code)

		var orders []model.Order
		require.NoError(t, json.NewDecoder(w.Body).Decode(&orders))
		assert.Len(t, orders, 1)
	})

	t.Run("Non-admin cannot list all orders", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/orders", nil, customerID, false)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Admin deletes the order", func(t *testing.T) {
		w := doRequest(server, http.MethodDelete, orderPath, nil, adminID, true)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(server, http.MethodGet, orderPath, nil, adminID, true)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderValidation_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)
	userID := uuid.New()

	CleanupDB(t, testDB.Pool)
	SeedProducts(t, testDB.Pool)

	t.Run("Unknown product", func(t *testing.T) {
		body, _ := json.Marshal(&model.OrderRequest{
			Items: []model.OrderItemRequest{{ProductID: "P999", Qty: 1}},
			ShippingAddress: model.ShippingAddress{
				Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
			},
			PaymentMethod: "paypal",
		})

		w := doRequest(server, http.MethodPost, "/api/orders", body, userID, false)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid quantity", func(t *testing.T) {
		body, _ := json.Marshal(&model.OrderRequest{
			Items: []model.OrderItemRequest{{ProductID: "P001", Qty: -1}},
			ShippingAddress: model.ShippingAddress{
				Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
			},
			PaymentMethod: "paypal",
		})

		w := doRequest(server, http.MethodPost, "/api/orders", body, userID, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing shipping address", func(t *testing.T) {
		body, _ := json.Marshal(&model.OrderRequest{
			Items:         []model.OrderItemRequest{{ProductID: "P001", Qty: 1}},
			PaymentMethod: "paypal",
		})

		w := doRequest(server, http.MethodPost, "/api/orders", body, userID, false)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(orderRequestBody(t)))
		req.Header.Set("X-API-Key", testAPIKey)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestCORS_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	server := setupTestServer(t, testDB)

	t.Run("OPTIONS request returns CORS headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
		w := httptest.NewRecorder()

		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "GET")
	})
}
