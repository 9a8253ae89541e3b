package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rankingdbv/ranking-system/internal/billing"
	"github.com/rankingdbv/ranking-system/internal/middleware"
	"github.com/rankingdbv/ranking-system/internal/model"
	"github.com/rankingdbv/ranking-system/internal/payments"
	"github.com/rankingdbv/ranking-system/internal/repository"
	"github.com/rankingdbv/ranking-system/internal/service"
)

type stubService struct {
	registerID  int64
	registerErr error

	authID  int64
	authErr error

	user    *model.User
	userErr error

	createClubID int64

	createMemberID  int64
	createMemberErr error

	ranking []model.RankingEntry

	adjustBalance int64
	adjustErr     error

	products []model.Product

	buyPurchase *model.Purchase
	buyBalance  int64
	buyErr      error

	purchases  []model.Purchase
	fulfillErr error

	clubStatus *model.ClubStatus

	updateSubErr error

	notifications []model.Notification
	unreadCount   int

	pixCharge *payments.PixCharge
	pixErr    error
}

func (s *stubService) RegisterUser(ctx context.Context, name, email, password string) (int64, error) {
	return s.registerID, s.registerErr
}

func (s *stubService) AuthenticateUser(ctx context.Context, email, password string) (int64, error) {
	return s.authID, s.authErr
}

func (s *stubService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubService) CreateClub(ctx context.Context, ownerID int64, name string) (int64, error) {
	return s.createClubID, nil
}

func (s *stubService) CreateMember(ctx context.Context, actorID int64, m *model.User, password string) (int64, error) {
	return s.createMemberID, s.createMemberErr
}

func (s *stubService) DeleteMember(ctx context.Context, actorID, memberID int64) error {
	return nil
}

func (s *stubService) GetRanking(ctx context.Context, clubID int64) ([]model.RankingEntry, error) {
	return s.ranking, nil
}

func (s *stubService) AdjustPoints(ctx context.Context, actorID, userID int64, newPoints int64) (int64, error) {
	return s.adjustBalance, s.adjustErr
}

func (s *stubService) GetPointsHistory(ctx context.Context, userID int64) ([]model.PointsEntry, error) {
	return nil, nil
}

func (s *stubService) ListProducts(ctx context.Context, clubID int64) ([]model.Product, error) {
	return s.products, nil
}

func (s *stubService) CreateProduct(ctx context.Context, actorID int64, p *model.Product) (int64, error) {
	return 1, nil
}

func (s *stubService) DeleteProduct(ctx context.Context, actorID, productID int64) error {
	return nil
}

func (s *stubService) BuyProduct(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error) {
	if s.buyErr != nil {
		return nil, 0, s.buyErr
	}
	return s.buyPurchase, s.buyBalance, nil
}

func (s *stubService) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.purchases, nil
}

func (s *stubService) FulfillPurchase(ctx context.Context, actorID, purchaseID int64) error {
	return s.fulfillErr
}

func (s *stubService) GetClubStatus(ctx context.Context, clubID int64) (*model.ClubStatus, error) {
	if s.clubStatus == nil {
		return nil, repository.ErrClubNotFound
	}
	return s.clubStatus, nil
}

func (s *stubService) UpdateSubscription(ctx context.Context, actorID, clubID int64, upd service.SubscriptionUpdate) error {
	return s.updateSubErr
}

func (s *stubService) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.notifications, nil
}

func (s *stubService) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.unreadCount, nil
}

func (s *stubService) MarkNotificationRead(ctx context.Context, id int64) error { return nil }

func (s *stubService) MarkAllNotificationsRead(ctx context.Context, userID int64) error { return nil }

func (s *stubService) CreatePixCharge(ctx context.Context, userID int64, amountCents int64, taxID string) (*payments.PixCharge, error) {
	return s.pixCharge, s.pixErr
}

func newTestHandler(t *testing.T, svc Service) (*Handler, http.Handler, *http.Cookie) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	auth := middleware.NewAuthMiddleware("test-secret")
	h := NewHandler(svc, logger, auth)

	recorder := httptest.NewRecorder()
	auth.SetAuthCookie(recorder, 1)
	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatal("auth cookie was not set")
	}

	return h, h.SetupRouter(), cookies[0]
}

func ptrInt64(v int64) *int64 { return &v }

func TestRegister(t *testing.T) {
	svc := &stubService{registerID: 1}
	_, router, _ := newTestHandler(t, svc)

	body := `{"name":"João","email":"joao@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/register", strings.NewReader(body))
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}
	if len(rw.Result().Cookies()) == 0 {
		t.Fatal("auth cookie was not set")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := &stubService{registerErr: repository.ErrUserExists}
	_, router, _ := newTestHandler(t, svc)

	body := `{"name":"João","email":"joao@example.com","password":"password123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/register", strings.NewReader(body))
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusConflict)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := &stubService{authErr: service.ErrInvalidCredentials}
	_, router, _ := newTestHandler(t, svc)

	body := `{"email":"joao@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/api/user/login", strings.NewReader(body))
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusUnauthorized)
	}
}

func TestBuy(t *testing.T) {
	svc := &stubService{
		buyPurchase: &model.Purchase{ID: 5, ProductID: 3, Cost: 50, Status: model.PurchaseApplied, CreatedAt: time.Now()},
		buyBalance:  150,
	}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/store/buy", strings.NewReader(`{"product_id":3}`))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d, body: %s", rw.Code, http.StatusOK, rw.Body.String())
	}

	var resp buyResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.NewBalance != 150 || resp.Purchase.ID != 5 || resp.Purchase.Status != "APPLIED" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBuy_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "insufficient points", err: repository.ErrInsufficientPoints, wantStatus: http.StatusPaymentRequired},
		{name: "out of stock", err: repository.ErrProductOutOfStock, wantStatus: http.StatusConflict},
		{name: "product not found", err: repository.ErrProductNotFound, wantStatus: http.StatusNotFound},
		{name: "subscription overdue", err: &billing.AccessDeniedError{ClubName: "Falcão"}, wantStatus: http.StatusPaymentRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubService{buyErr: tt.err}
			_, router, cookie := newTestHandler(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/store/buy", strings.NewReader(`{"product_id":3}`))
			req.AddCookie(cookie)
			rw := httptest.NewRecorder()
			router.ServeHTTP(rw, req)

			if rw.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rw.Code, tt.wantStatus)
			}
		})
	}
}

func TestBuy_Unauthorized(t *testing.T) {
	svc := &stubService{}
	_, router, _ := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/store/buy", strings.NewReader(`{"product_id":3}`))
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusUnauthorized)
	}
}

func TestCreateMember(t *testing.T) {
	svc := &stubService{createMemberID: 42}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"name":"Maria","email":"maria@example.com","password":"pw","role":"PATHFINDER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d, body: %s", rw.Code, http.StatusCreated, rw.Body.String())
	}

	var resp createdResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != 42 {
		t.Fatalf("id = %d, want 42", resp.ID)
	}
}

func TestCreateMember_LimitReached(t *testing.T) {
	svc := &stubService{createMemberErr: &repository.MemberLimitError{Current: 5, Limit: 5}}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"name":"Maria","email":"maria@example.com","password":"pw","role":"PATHFINDER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusForbidden)
	}
	if !strings.Contains(rw.Body.String(), "5/5") {
		t.Fatalf("body %q does not describe the limit", rw.Body.String())
	}
}

func TestGetRanking(t *testing.T) {
	svc := &stubService{
		user: &model.User{ID: 1, ClubID: ptrInt64(7)},
		ranking: []model.RankingEntry{
			{UserID: 2, Name: "Maria", Points: 300, Role: model.RolePathfinder},
			{UserID: 3, Name: "Pedro", Points: 150, Role: model.RolePathfinder},
		},
	}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/ranking", nil)
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}

	var resp []rankingEntryResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 || resp[0].Name != "Maria" || resp[0].Points != 300 {
		t.Fatalf("unexpected ranking: %+v", resp)
	}
}

func TestGetRanking_NoClub(t *testing.T) {
	svc := &stubService{user: &model.User{ID: 1}}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/ranking", nil)
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusNoContent)
	}
}

func TestGetNotifications_Empty(t *testing.T) {
	svc := &stubService{}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusNoContent)
	}
}

func TestAdjustPoints_NegativeRejected(t *testing.T) {
	svc := &stubService{}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodPatch, "/api/members/2/points", strings.NewReader(`{"points":-10}`))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusBadRequest)
	}
}

func TestUpdateSubscription_BadDate(t *testing.T) {
	svc := &stubService{}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"plan_tier":"PLAN_P","member_limit":15,"subscription_status":"ACTIVE","next_billing_date":"30/08/2026"}`
	req := httptest.NewRequest(http.MethodPut, "/api/clubs/7/subscription", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusBadRequest)
	}
}

func TestUpdateSubscription_PermissionDenied(t *testing.T) {
	svc := &stubService{updateSubErr: service.ErrPermissionDenied}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"plan_tier":"PLAN_P","member_limit":15,"subscription_status":"ACTIVE"}`
	req := httptest.NewRequest(http.MethodPut, "/api/clubs/7/subscription", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusForbidden)
	}
}

func TestCreateProduct_InvalidCategory(t *testing.T) {
	svc := &stubService{}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"name":"Lenço","price":50,"stock":10,"category":"DIGITAL"}`
	req := httptest.NewRequest(http.MethodPost, "/api/store/products", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusBadRequest)
	}
}

func TestGetClubStatus(t *testing.T) {
	billingDate := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc := &stubService{clubStatus: &model.ClubStatus{
		Club: model.Club{
			ID:                 7,
			Name:               "Falcão",
			PlanTier:           model.PlanP,
			SubscriptionStatus: model.SubscriptionActive,
			MemberLimit:        15,
			NextBillingDate:    &billingDate,
			GracePeriodDays:    5,
		},
		ActiveMembers: 12,
	}}
	_, router, cookie := newTestHandler(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/clubs/7/status", nil)
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusOK)
	}

	var resp clubStatusResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Falcão" || resp.ActiveMembers != 12 || resp.MemberLimit != 15 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.NextBillingDate == "" {
		t.Fatal("next_billing_date is empty")
	}
}

func TestCreatePixCharge(t *testing.T) {
	svc := &stubService{pixCharge: &payments.PixCharge{
		ReferenceID:   "REF-1-100",
		AmountCents:   4990,
		QRCodeImage:   "https://gateway.test/qr.png",
		QRCodePayload: "pix-copy-paste",
		ExpiresAt:     time.Now().Add(24 * time.Hour),
	}}
	_, router, cookie := newTestHandler(t, svc)

	body := `{"amount_cents":4990,"tax_id":"529.982.247-25"}`
	req := httptest.NewRequest(http.MethodPost, "/api/payments/pix", strings.NewReader(body))
	req.AddCookie(cookie)
	rw := httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rw.Code, http.StatusCreated)
	}

	var resp pixChargeResponse
	if err := json.NewDecoder(rw.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ReferenceID != "REF-1-100" || resp.QRCodePayload != "pix-copy-paste" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}
