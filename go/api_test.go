package lucentserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	identitymailer "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/mailer"
	identitymemory "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/memory"
	identitysession "github.com/KwakOri/lucent-sub001/internal/domains/identity/adapters/session"
	identityapp "github.com/KwakOri/lucent-sub001/internal/domains/identity/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/downloads"
	ordersmemory "github.com/KwakOri/lucent-sub001/internal/domains/orders/adapters/memory"
	ordersapp "github.com/KwakOri/lucent-sub001/internal/domains/orders/application"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/platform/auth"
	"github.com/KwakOri/lucent-sub001/internal/platform/metrics"
	apierrors "github.com/KwakOri/lucent-sub001/internal/shared/errors"
)

const testSecret = "router-test-secret-0123456789abcdef"

type testServer struct {
	router *gin.Engine
	orders *ordersmemory.Repository
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenManager(auth.Config{SigningSecret: testSecret})
	require.NoError(t, err)
	policy, err := auth.NewPolicy(auth.DefaultRules)
	require.NoError(t, err)
	linker, err := downloads.NewSignedURLLinker("https://cdn.lucent.kr/files", testSecret)
	require.NoError(t, err)

	orders := ordersmemory.NewRepository()
	orderService := ordersapp.NewService(orders, ordersapp.WithDownloadLinker(linker), ordersapp.WithLogger(quiet))

	identityService := identityapp.NewService(
		identitymemory.NewUserRepository(),
		identitymemory.NewVerificationStore(),
		identitymailer.NewLogMailer(quiet),
		identitysession.NewJWTIssuer(tokens),
		identityapp.WithAdminPolicy(auth.NewAuthorizer([]string{"boss@lucent.kr"})),
		identityapp.WithCodeGenerator(func() (string, error) { return "424242", nil }),
		identityapp.WithHashCost(bcrypt.MinCost),
	)

	router := NewRouter(ApiHandleFunctions{
		HealthAPI: NewHealthAPI(map[string]HealthCheck{"memory": func(context.Context) error { return nil }}),
		AuthAPI:   NewAuthAPI(identityService),
		OrderAPI:  NewOrderAPI(orderService, nil),
	}, RouterOptions{Tokens: tokens, Policy: policy, Metrics: metrics.NewHTTP("lucent_test"), Logger: quiet})

	seedOrder(t, orders, "order-1", "user-1", domain.OrderStatusShipping, []domain.OrderItem{
		{ID: "A", ProductID: "album", ProductType: domain.ProductTypeDigital, Quantity: 1, UnitPrice: decimal.NewFromInt(15000), Status: domain.ItemStatusProcessing},
		{ID: "C", ProductID: "poster", ProductType: domain.ProductTypePhysical, Quantity: 2, UnitPrice: decimal.NewFromInt(8000), Status: domain.ItemStatusReady},
	})
	seedOrder(t, orders, "order-2", "user-2", domain.OrderStatusPaid, []domain.OrderItem{
		{ID: "X", ProductID: "album", ProductType: domain.ProductTypeDigital, Quantity: 1, UnitPrice: decimal.NewFromInt(15000)},
	})
	return &testServer{router: router, orders: orders, tokens: tokens}
}

func seedOrder(t *testing.T, repo *ordersmemory.Repository, id, userID string, status domain.OrderStatus, items []domain.OrderItem) {
	t.Helper()
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	_, err := repo.Save(context.Background(), &domain.Order{ID: id, UserID: userID, Status: status, Total: total, Items: items})
	require.NoError(t, err)
}

func (s *testServer) token(t *testing.T, userID string, admin bool) string {
	t.Helper()
	token, _, err := s.tokens.Issue(auth.Principal{UserID: userID, Email: userID + "@lucent.kr", Admin: admin})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, rec.Code, apiErr.Status)
	return apiErr
}

func TestAccess_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/status", "", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apierrors.CodeUnauthorized, decodeAPIError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodPatch, "/orders/order-1/status", "garbage", map[string]string{"status": "PAID"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAccess_BuyerCannotUseAdminRoutes(t *testing.T) {
	s := newTestServer(t)
	buyer := s.token(t, "user-1", false)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPatch, "/orders/order-1/status"},
		{http.MethodPatch, "/orders/order-1/items/status"},
		{http.MethodPatch, "/admin/orders/bulk-update"},
		{http.MethodGet, "/admin/orders"},
	} {
		rec := s.do(t, tc.method, tc.path, buyer, map[string]string{"status": "DONE"})
		require.Equal(t, http.StatusForbidden, rec.Code, tc.path)
		assert.Equal(t, apierrors.CodeForbidden, decodeAPIError(t, rec).ErrorCode)
	}
}

func TestUpdateOrderStatus_InvalidStatus(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/status", admin, map[string]string{"status": "done"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeInvalidStatus, decodeAPIError(t, rec).ErrorCode)

	order, err := s.orders.GetOrder(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipping, order.Status)
}

func TestUpdateOrderStatus_DoneCascades(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/status?includeItems=true", admin, map[string]string{"status": "DONE"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status    string `json:"status"`
		UpdatedBy string `json:"updatedBy"`
		Items     []struct {
			ID         string `json:"id"`
			ItemStatus string `json:"itemStatus"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "DONE", body.Status)
	assert.Equal(t, "admin-1", body.UpdatedBy)
	require.Len(t, body.Items, 2)
	for _, item := range body.Items {
		assert.Equal(t, "COMPLETED", item.ItemStatus, item.ID)
	}

	rec = s.do(t, http.MethodPatch, "/orders/missing/status", admin, map[string]string{"status": "DONE"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.CodeNotFound, decodeAPIError(t, rec).ErrorCode)
}

func TestUpdateItemsStatus_PartialSuccess(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/items/status", admin, map[string]any{
		"itemIds": []string{"A", "B", "C"},
		"status":  "SHIPPED",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":["A","C"],"errors":[{"itemId":"B","error":"not found"}]}`, rec.Body.String())
}

func TestUpdateItemsStatus_AllFailed(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/items/status", admin, map[string]any{
		"itemIds": []string{"nope", "X"},
		"status":  "SHIPPED",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, apierrors.CodeBulkUpdateFailed, apiErr.ErrorCode)
	assert.Len(t, apiErr.Details["errors"], 2)
}

func TestUpdateItemsStatus_InvalidStatusAndEmptyTargets(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/orders/order-1/items/status", admin, map[string]any{"itemIds": []string{"A"}, "status": "LOST"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeInvalidStatus, decodeAPIError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodPatch, "/orders/order-1/items/status", admin, map[string]any{"itemIds": []string{}, "status": "SHIPPED"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeValidation, decodeAPIError(t, rec).ErrorCode)
}

func TestBulkUpdateOrderStatus_PartialSuccess(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodPatch, "/admin/orders/bulk-update", admin, map[string]any{
		"orderIds": []string{"order-1", "ghost", "order-2"},
		"status":   "MAKING",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":["order-1","order-2"],"errors":[{"orderId":"ghost","error":"not found"}]}`, rec.Body.String())
}

func TestUpdateItemStatusAndTracking(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)
	buyer := s.token(t, "user-1", false)

	rec := s.do(t, http.MethodGet, "/orders/order-1/items/C/shipment", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", rec.Body.String())

	rec = s.do(t, http.MethodPatch, "/orders/order-1/items/C/status", admin, map[string]string{"status": "SHIPPED"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/admin/orders/order-1/items/C/tracking", admin, map[string]string{"carrier": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPut, "/admin/orders/order-1/items/C/tracking", admin, map[string]string{
		"carrier": "CJ Logistics", "trackingNumber": "6543210",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/order-1/items/C/shipment", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"trackingNumber"`
		Status         string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "CJ Logistics", view.Carrier)
	assert.Equal(t, "SHIPPED", view.Status)
}

func TestShipmentTracking_ForeignLooksMissing(t *testing.T) {
	s := newTestServer(t)
	intruder := s.token(t, "user-2", false)

	foreign := s.do(t, http.MethodGet, "/orders/order-1/items/A/shipment", intruder, nil)
	missing := s.do(t, http.MethodGet, "/orders/order-1/items/nope/shipment", intruder, nil)

	require.Equal(t, http.StatusNotFound, foreign.Code)
	assert.Equal(t, missing.Code, foreign.Code)
	assert.JSONEq(t, missing.Body.String(), foreign.Body.String())
}

func TestGetOrder_OwnerOrAdmin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/orders/order-1", s.token(t, "user-1", false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalPrice":"31000.00"`)

	rec = s.do(t, http.MethodGet, "/orders/order-1", s.token(t, "user-2", false), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/order-1", s.token(t, "admin-1", true), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestListOrders(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodGet, "/admin/orders?status=PAID", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var orders []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "order-2", orders[0].ID)

	rec = s.do(t, http.MethodGet, "/admin/orders?limit=ten", admin, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/orders?status=paid", admin, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_RequiresCompletedPurchase(t *testing.T) {
	s := newTestServer(t)
	buyer := s.token(t, "user-1", false)
	admin := s.token(t, "admin-1", true)

	rec := s.do(t, http.MethodGet, "/orders/order-1/items/A/download", buyer, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, apierrors.CodeNotEntitled, decodeAPIError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodGet, "/orders/order-1/items/C/download", buyer, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, "/orders/order-1/status", admin, map[string]string{"status": "DONE"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/orders/order-1/items/A/download", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://cdn.lucent.kr/files/products/album/digital?token=")

	// the same product bought by someone else stays locked for them
	rec = s.do(t, http.MethodGet, "/orders/order-2/items/X/download", s.token(t, "user-2", false), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/order-statuses", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"SHIPPING"`)

	rec = s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz_ReportsFailingCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(ApiHandleFunctions{
		HealthAPI: NewHealthAPI(map[string]HealthCheck{"postgres": func(context.Context) error { return errors.New("connection refused") }}),
	}, RouterOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/verification-codes", "", map[string]string{"email": "boss@lucent.kr", "purpose": "SIGNUP"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/verification-codes", "", map[string]string{"email": "boss@lucent.kr", "purpose": "SIGNUP"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, apierrors.CodeTooManyRequests, apiErr.ErrorCode)
	assert.Contains(t, apiErr.Details, "retryAfterSeconds")

	rec = s.do(t, http.MethodPost, "/auth/verification-codes/verify", "", map[string]string{"email": "boss@lucent.kr", "purpose": "SIGNUP", "code": "000000"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeVerificationError, decodeAPIError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodPost, "/auth/verification-codes/verify", "", map[string]string{"email": "boss@lucent.kr", "purpose": "SIGNUP", "code": "424242"})
	require.Equal(t, http.StatusOK, rec.Code)
	var verified struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))

	rec = s.do(t, http.MethodPost, "/auth/sessions", "", map[string]string{"token": verified.Token, "name": "Boss"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var session struct {
		AccessToken string `json:"accessToken"`
		User        struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "ADMIN", session.User.Role)

	rec = s.do(t, http.MethodGet, "/auth/me", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"boss@lucent.kr"`)

	rec = s.do(t, http.MethodPost, "/auth/sessions", "", map[string]string{"token": verified.Token})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/verification-codes", "", map[string]string{"email": "boss@lucent.kr"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apierrors.CodeValidation, decodeAPIError(t, rec).ErrorCode)
}
