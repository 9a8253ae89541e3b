// Package handler содержит HTTP-обработчики API сервиса RankingDBV.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rankingdbv/ranking-system/internal/billing"
	"github.com/rankingdbv/ranking-system/internal/middleware"
	"github.com/rankingdbv/ranking-system/internal/model"
	"github.com/rankingdbv/ranking-system/internal/payments"
	"github.com/rankingdbv/ranking-system/internal/repository"
	"github.com/rankingdbv/ranking-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, email, password string) (int64, error)
	AuthenticateUser(ctx context.Context, email, password string) (int64, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	CreateClub(ctx context.Context, ownerID int64, name string) (int64, error)
	CreateMember(ctx context.Context, actorID int64, m *model.User, password string) (int64, error)
	DeleteMember(ctx context.Context, actorID, memberID int64) error
	GetRanking(ctx context.Context, clubID int64) ([]model.RankingEntry, error)
	AdjustPoints(ctx context.Context, actorID, userID int64, newPoints int64) (int64, error)
	GetPointsHistory(ctx context.Context, userID int64) ([]model.PointsEntry, error)
	ListProducts(ctx context.Context, clubID int64) ([]model.Product, error)
	CreateProduct(ctx context.Context, actorID int64, p *model.Product) (int64, error)
	DeleteProduct(ctx context.Context, actorID, productID int64) error
	BuyProduct(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error)
	FulfillPurchase(ctx context.Context, actorID, purchaseID int64) error
	GetClubStatus(ctx context.Context, clubID int64) (*model.ClubStatus, error)
	UpdateSubscription(ctx context.Context, actorID, clubID int64, upd service.SubscriptionUpdate) error
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	CreatePixCharge(ctx context.Context, userID int64, amountCents int64, taxID string) (*payments.PixCharge, error)
}

// Handler реализует HTTP-обработчики API сервиса RankingDBV.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// respondError отображает доменные ошибки на HTTP-статусы. Сообщения
// доменных ошибок видимы пользователю; прочие ошибки логируются и скрываются.
func (h *Handler) respondError(w http.ResponseWriter, err error, msg string) {
	var accessDenied *billing.AccessDeniedError
	if errors.As(err, &accessDenied) {
		http.Error(w, accessDenied.Error(), http.StatusPaymentRequired)
		return
	}

	var limitErr *repository.MemberLimitError
	if errors.As(err, &limitErr) {
		http.Error(w, limitErr.Error(), http.StatusForbidden)
		return
	}

	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrClubNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrPurchaseNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	case errors.Is(err, repository.ErrInsufficientPoints):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, repository.ErrProductOutOfStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repository.ErrUserExists):
		http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
	default:
		h.logger.Error(msg, zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func urlParamID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type createClubRequest struct {
	Name string `json:"name"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// CreateClub создаёт клуб и делает текущего пользователя его владельцем.
func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createClubRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateClub(r.Context(), userID, req.Name)
	if err != nil {
		h.respondError(w, err, "create club error")
		return
	}

	h.writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

type createMemberRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	ClubID   *int64 `json:"club_id,omitempty"`
}

// CreateMember создаёт участника клуба.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	m := &model.User{
		Name:   req.Name,
		Email:  req.Email,
		Role:   model.Role(req.Role),
		ClubID: req.ClubID,
	}

	id, err := h.service.CreateMember(r.Context(), userID, m, req.Password)
	if err != nil {
		h.respondError(w, err, "create member error")
		return
	}

	h.writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// DeleteMember удаляет участника клуба.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	memberID, ok := urlParamID(r, "id")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteMember(r.Context(), userID, memberID); err != nil {
		h.respondError(w, err, "delete member error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type rankingEntryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Points int64  `json:"points"`
	Role   string `json:"role"`
}

// GetRanking возвращает рейтинг клуба текущего пользователя по баллам.
func (h *Handler) GetRanking(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get user error")
		return
	}

	if u.ClubID == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ranking, err := h.service.GetRanking(r.Context(), *u.ClubID)
	if err != nil {
		h.respondError(w, err, "get ranking error")
		return
	}

	if len(ranking) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]rankingEntryResponse, 0, len(ranking))
	for _, e := range ranking {
		resp = append(resp, rankingEntryResponse{
			ID:     e.UserID,
			Name:   e.Name,
			Points: e.Points,
			Role:   string(e.Role),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type adjustPointsRequest struct {
	Points int64 `json:"points"`
}

type balanceResponse struct {
	Points int64 `json:"points"`
}

// AdjustPoints выставляет участнику новый баланс баллов.
func (h *Handler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	memberID, ok := urlParamID(r, "id")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req adjustPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Points < 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	newBalance, err := h.service.AdjustPoints(r.Context(), userID, memberID, req.Points)
	if err != nil {
		h.respondError(w, err, "adjust points error")
		return
	}

	h.writeJSON(w, http.StatusOK, balanceResponse{Points: newBalance})
}

type pointsEntryResponse struct {
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
	Source    string `json:"source"`
	AwardedAt string `json:"awarded_at"`
}

// GetPointsHistory возвращает журнал баллов текущего пользователя.
func (h *Handler) GetPointsHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	history, err := h.service.GetPointsHistory(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get points history error")
		return
	}

	if len(history) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]pointsEntryResponse, 0, len(history))
	for _, e := range history {
		resp = append(resp, pointsEntryResponse{
			Amount:    e.Amount,
			Reason:    e.Reason,
			Source:    string(e.Source),
			AwardedAt: e.AwardedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type productResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int64  `json:"stock"`
	Category string `json:"category"`
}

// ListProducts возвращает товары клуба текущего пользователя.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get user error")
		return
	}

	if u.ClubID == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	products, err := h.service.ListProducts(r.Context(), *u.ClubID)
	if err != nil {
		h.respondError(w, err, "list products error")
		return
	}

	if len(products) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Stock:    p.Stock,
			Category: string(p.Category),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type createProductRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Stock    int64  `json:"stock"`
	Category string `json:"category"`
}

// CreateProduct создаёт товар в магазине клуба.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Name == "" || req.Price <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	category := model.ProductCategory(req.Category)
	if category != model.ProductReal && category != model.ProductVirtual {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p := &model.Product{
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Category: category,
	}

	id, err := h.service.CreateProduct(r.Context(), userID, p)
	if err != nil {
		h.respondError(w, err, "create product error")
		return
	}

	h.writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// DeleteProduct удаляет товар из магазина.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	productID, ok := urlParamID(r, "id")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), userID, productID); err != nil {
		h.respondError(w, err, "delete product error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type buyRequest struct {
	ProductID int64 `json:"product_id"`
}

type purchaseResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Cost      int64  `json:"cost"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type buyResponse struct {
	Purchase   purchaseResponse `json:"purchase"`
	NewBalance int64            `json:"new_balance"`
}

// Buy выполняет покупку товара за баллы текущим пользователем.
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	purchase, newBalance, err := h.service.BuyProduct(r.Context(), userID, req.ProductID)
	if err != nil {
		h.respondError(w, err, "buy product error")
		return
	}

	h.writeJSON(w, http.StatusOK, buyResponse{
		Purchase: purchaseResponse{
			ID:        purchase.ID,
			ProductID: purchase.ProductID,
			Cost:      purchase.Cost,
			Status:    string(purchase.Status),
			CreatedAt: purchase.CreatedAt.Format(time.RFC3339),
		},
		NewBalance: newBalance,
	})
}

// GetPurchases возвращает покупки текущего пользователя.
func (h *Handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	purchases, err := h.service.GetPurchasesByUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get purchases error")
		return
	}

	if len(purchases) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		resp = append(resp, purchaseResponse{
			ID:        p.ID,
			ProductID: p.ProductID,
			Cost:      p.Cost,
			Status:    string(p.Status),
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// FulfillPurchase отмечает физическую покупку выданной.
func (h *Handler) FulfillPurchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	purchaseID, ok := urlParamID(r, "id")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.FulfillPurchase(r.Context(), userID, purchaseID); err != nil {
		h.respondError(w, err, "fulfill purchase error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type clubStatusResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	PlanTier           string `json:"plan_tier"`
	SubscriptionStatus string `json:"subscription_status"`
	MemberLimit        int    `json:"member_limit"`
	NextBillingDate    string `json:"next_billing_date,omitempty"`
	GracePeriodDays    int    `json:"grace_period_days"`
	ActiveMembers      int    `json:"active_members"`
}

// GetClubStatus возвращает биллинговое состояние клуба.
func (h *Handler) GetClubStatus(w http.ResponseWriter, r *http.Request) {
	clubID, ok := urlParamID(r, "clubID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	status, err := h.service.GetClubStatus(r.Context(), clubID)
	if err != nil {
		h.respondError(w, err, "get club status error")
		return
	}

	resp := clubStatusResponse{
		ID:                 status.Club.ID,
		Name:               status.Club.Name,
		PlanTier:           string(status.Club.PlanTier),
		SubscriptionStatus: string(status.Club.SubscriptionStatus),
		MemberLimit:        status.Club.MemberLimit,
		GracePeriodDays:    status.Club.GracePeriodDays,
		ActiveMembers:      status.ActiveMembers,
	}
	if status.Club.NextBillingDate != nil {
		resp.NextBillingDate = status.Club.NextBillingDate.Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type updateSubscriptionRequest struct {
	PlanTier        string `json:"plan_tier"`
	MemberLimit     int    `json:"member_limit"`
	Status          string `json:"subscription_status"`
	NextBillingDate string `json:"next_billing_date"`
	GracePeriodDays int    `json:"grace_period_days"`
}

// UpdateSubscription изменяет биллинговые поля клуба.
func (h *Handler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	clubID, ok := urlParamID(r, "clubID")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	upd := service.SubscriptionUpdate{
		PlanTier:        model.PlanTier(req.PlanTier),
		MemberLimit:     req.MemberLimit,
		Status:          model.SubscriptionStatus(req.Status),
		GracePeriodDays: req.GracePeriodDays,
	}

	if req.NextBillingDate != "" {
		d, err := time.Parse(time.RFC3339, req.NextBillingDate)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		upd.NextBillingDate = &d
	}

	if err := h.service.UpdateSubscription(r.Context(), userID, clubID, upd); err != nil {
		h.respondError(w, err, "update subscription error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type notificationResponse struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

// GetNotifications возвращает последние уведомления текущего пользователя.
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	notifications, err := h.service.GetNotifications(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get notifications error")
		return
	}

	if len(notifications) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			Title:     n.Title,
			Message:   n.Message,
			Type:      string(n.Type),
			Read:      n.Read,
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type unreadCountResponse struct {
	Count int `json:"count"`
}

// GetUnreadCount возвращает число непрочитанных уведомлений.
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		h.respondError(w, err, "get unread count error")
		return
	}

	h.writeJSON(w, http.StatusOK, unreadCountResponse{Count: count})
}

// MarkNotificationRead помечает уведомление прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	id, ok := urlParamID(r, "id")
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.MarkNotificationRead(r.Context(), id); err != nil {
		h.respondError(w, err, "mark notification read error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// MarkAllNotificationsRead помечает все уведомления пользователя прочитанными.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	if err := h.service.MarkAllNotificationsRead(r.Context(), userID); err != nil {
		h.respondError(w, err, "mark all notifications read error")
		return
	}

	w.WriteHeader(http.StatusOK)
}

type pixChargeRequest struct {
	AmountCents int64  `json:"amount_cents"`
	TaxID       string `json:"tax_id"`
}

type pixChargeResponse struct {
	ReferenceID   string `json:"reference_id"`
	AmountCents   int64  `json:"amount_cents"`
	QRCodeImage   string `json:"qr_code_image,omitempty"`
	QRCodePayload string `json:"qr_code_payload,omitempty"`
	ExpiresAt     string `json:"expires_at"`
}

// CreatePixCharge создаёт Pix-платёж для оплаты подписки.
func (h *Handler) CreatePixCharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req pixChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AmountCents <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	charge, err := h.service.CreatePixCharge(r.Context(), userID, req.AmountCents, req.TaxID)
	if err != nil {
		h.respondError(w, err, "create pix charge error")
		return
	}

	h.writeJSON(w, http.StatusCreated, pixChargeResponse{
		ReferenceID:   charge.ReferenceID,
		AmountCents:   charge.AmountCents,
		QRCodeImage:   charge.QRCodeImage,
		QRCodePayload: charge.QRCodePayload,
		ExpiresAt:     charge.ExpiresAt.Format(time.RFC3339),
	})
}
