// Package service реализует бизнес-логику сервиса RankingDBV.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rankingdbv/ranking-system/internal/model"
	"github.com/rankingdbv/ranking-system/internal/payments"
	"github.com/rankingdbv/ranking-system/internal/policy"
	"github.com/rankingdbv/ranking-system/internal/repository"
)

// ErrPermissionDenied возвращается, когда роль пользователя не даёт права на действие.
var ErrPermissionDenied = errors.New("permission denied")

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateClub(ctx context.Context, name string, ownerID int64) (int64, error)
	GetClubStatus(ctx context.Context, clubID int64) (*model.ClubStatus, error)
	UpdateSubscription(ctx context.Context, clubID int64, tier model.PlanTier, memberLimit int, status model.SubscriptionStatus, nextBillingDate *time.Time, graceDays int) error
	CreateMember(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	DeleteMember(ctx context.Context, id int64) error
	GetRanking(ctx context.Context, clubID int64) ([]model.RankingEntry, error)
	AdjustPoints(ctx context.Context, userID int64, newPoints int64, reason string) (int64, error)
	GetPointsHistory(ctx context.Context, userID int64) ([]model.PointsEntry, error)
	ListProducts(ctx context.Context, clubID int64) ([]model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	DeleteProduct(ctx context.Context, id int64) error
	BuyProduct(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error)
	GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error)
	ApplyPurchase(ctx context.Context, purchaseID int64) error
	GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error)
	GetUnreadCount(ctx context.Context, userID int64) (int, error)
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) error
	GetOverdueClubs(ctx context.Context, now time.Time, limit int) ([]repository.OverdueClub, error)
}

// Gate описывает контракт проверки доступа на запись по состоянию подписки.
type Gate interface {
	CheckWriteAccess(ctx context.Context, clubID int64) error
}

// Notifier описывает побочный канал уведомлений. Доставка не влияет на
// корректность породившей операции.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType)
}

// Service содержит бизнес-логику сервиса RankingDBV.
type Service struct {
	repo          Repository
	gate          Gate
	notifier      Notifier
	paymentClient *payments.Client
}

// NewService создаёт новый сервис с указанными зависимостями.
func NewService(repo Repository, gate Gate, notifier Notifier, paymentClient *payments.Client) *Service {
	return &Service{
		repo:          repo,
		gate:          gate,
		notifier:      notifier,
		paymentClient: paymentClient,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя без клуба.
func (s *Service) RegisterUser(ctx context.Context, name, email, password string) (int64, error) {
	hashed := hashPassword(email, password)
	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RolePathfinder,
	}
	id, err := s.repo.CreateMember(ctx, u)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет email и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (int64, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return 0, err
	}

	hashed := hashPassword(email, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return u.ID, nil
}

func hashPassword(email, password string) []byte {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return sum[:]
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// CreateClub создаёт клуб и делает пользователя его владельцем.
func (s *Service) CreateClub(ctx context.Context, ownerID int64, name string) (int64, error) {
	return s.repo.CreateClub(ctx, name, ownerID)
}

// CreateMember создаёт участника клуба. Проверяются права инициатора, статус
// подписки клуба и лимит платных участников (последний — транзакционно в
// репозитории).
func (s *Service) CreateMember(ctx context.Context, actorID int64, m *model.User, password string) (int64, error) {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return 0, err
	}

	if !policy.Can(actor, policy.ActionManageMembers) {
		return 0, ErrPermissionDenied
	}

	// Не-MASTER создаёт участников только в собственном клубе
	if actor.Role != model.RoleMaster {
		m.ClubID = actor.ClubID
	}

	if err := s.gate.CheckWriteAccess(ctx, clubIDOrZero(m.ClubID)); err != nil {
		return 0, err
	}

	m.PasswordHash = hashPassword(m.Email, password)

	id, err := s.repo.CreateMember(ctx, m)
	if err != nil {
		return 0, err
	}

	s.notifier.Notify(ctx, id, "Bem-vindo!", fmt.Sprintf("Você foi cadastrado no clube como %s.", m.Role), model.NotificationInfo)

	return id, nil
}

// DeleteMember удаляет участника. Разрешено MASTER и администраторам его клуба.
func (s *Service) DeleteMember(ctx context.Context, actorID, memberID int64) error {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}

	if !policy.Can(actor, policy.ActionManageMembers) {
		return ErrPermissionDenied
	}

	if actor.Role != model.RoleMaster {
		member, err := s.repo.GetUserByID(ctx, memberID)
		if err != nil {
			return err
		}
		if !sameClub(actor.ClubID, member.ClubID) {
			return ErrPermissionDenied
		}
	}

	return s.repo.DeleteMember(ctx, memberID)
}

// GetRanking возвращает рейтинг клуба по баллам.
func (s *Service) GetRanking(ctx context.Context, clubID int64) ([]model.RankingEntry, error) {
	return s.repo.GetRanking(ctx, clubID)
}

// AdjustPoints выставляет участнику новый баланс баллов с записью в журнал.
func (s *Service) AdjustPoints(ctx context.Context, actorID, userID int64, newPoints int64) (int64, error) {
	if newPoints < 0 {
		return 0, errors.New("points must not be negative")
	}

	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return 0, err
	}

	if !policy.Can(actor, policy.ActionAdjustPoints) {
		return 0, ErrPermissionDenied
	}

	if err := s.gate.CheckWriteAccess(ctx, clubIDOrZero(actor.ClubID)); err != nil {
		return 0, err
	}

	return s.repo.AdjustPoints(ctx, userID, newPoints, "Ajuste Manual de Cadastro")
}

// GetPointsHistory возвращает журнал баллов пользователя.
func (s *Service) GetPointsHistory(ctx context.Context, userID int64) ([]model.PointsEntry, error) {
	return s.repo.GetPointsHistory(ctx, userID)
}

// ListProducts возвращает товары клуба.
func (s *Service) ListProducts(ctx context.Context, clubID int64) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, clubID)
}

// CreateProduct создаёт товар в магазине клуба инициатора.
func (s *Service) CreateProduct(ctx context.Context, actorID int64, p *model.Product) (int64, error) {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return 0, err
	}

	if !policy.Can(actor, policy.ActionManageStore) {
		return 0, ErrPermissionDenied
	}

	if actor.ClubID == nil {
		return 0, ErrPermissionDenied
	}
	p.ClubID = *actor.ClubID

	if err := s.gate.CheckWriteAccess(ctx, p.ClubID); err != nil {
		return 0, err
	}

	if p.Price <= 0 {
		return 0, errors.New("product price must be positive")
	}
	if p.Stock < model.UnlimitedStock {
		return 0, errors.New("product stock must be -1 or non-negative")
	}

	return s.repo.CreateProduct(ctx, p)
}

// DeleteProduct удаляет товар из магазина.
func (s *Service) DeleteProduct(ctx context.Context, actorID, productID int64) error {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}

	if !policy.Can(actor, policy.ActionManageStore) {
		return ErrPermissionDenied
	}

	return s.repo.DeleteProduct(ctx, productID)
}

// BuyProduct выполняет покупку товара за баллы. Проверка подписки клуба идёт
// до транзакции покупки; сама покупка атомарна в репозитории. Подтверждение
// отправляется после фиксации и не влияет на её результат.
func (s *Service) BuyProduct(ctx context.Context, userID, productID int64) (*model.Purchase, int64, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	if err := s.gate.CheckWriteAccess(ctx, clubIDOrZero(u.ClubID)); err != nil {
		return nil, 0, err
	}

	purchase, newBalance, err := s.repo.BuyProduct(ctx, userID, productID)
	if err != nil {
		return nil, 0, err
	}

	s.notifier.Notify(ctx, userID, "Compra realizada",
		fmt.Sprintf("Compra registrada: -%d pontos. Saldo atual: %d.", purchase.Cost, newBalance),
		model.NotificationSuccess)

	return purchase, newBalance, nil
}

// GetPurchasesByUser возвращает покупки пользователя.
func (s *Service) GetPurchasesByUser(ctx context.Context, userID int64) ([]model.Purchase, error) {
	return s.repo.GetPurchasesByUser(ctx, userID)
}

// FulfillPurchase отмечает физическую покупку выданной (PENDING -> APPLIED).
func (s *Service) FulfillPurchase(ctx context.Context, actorID, purchaseID int64) error {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}

	if !policy.Can(actor, policy.ActionFulfillPurchase) {
		return ErrPermissionDenied
	}

	return s.repo.ApplyPurchase(ctx, purchaseID)
}

// GetClubStatus возвращает биллинговое состояние клуба и число активных участников.
func (s *Service) GetClubStatus(ctx context.Context, clubID int64) (*model.ClubStatus, error) {
	return s.repo.GetClubStatus(ctx, clubID)
}

// SubscriptionUpdate описывает изменение биллинговых полей клуба.
type SubscriptionUpdate struct {
	PlanTier        model.PlanTier
	MemberLimit     int
	Status          model.SubscriptionStatus
	NextBillingDate *time.Time
	GracePeriodDays int
}

// UpdateSubscription изменяет биллинговые поля клуба. Доступно только MASTER.
func (s *Service) UpdateSubscription(ctx context.Context, actorID, clubID int64, upd SubscriptionUpdate) error {
	actor, err := s.repo.GetUserByID(ctx, actorID)
	if err != nil {
		return err
	}

	if !policy.Can(actor, policy.ActionManageSubscription) {
		return ErrPermissionDenied
	}

	if upd.MemberLimit < 0 || upd.GracePeriodDays < 0 {
		return errors.New("member limit and grace period must not be negative")
	}

	return s.repo.UpdateSubscription(ctx, clubID, upd.PlanTier, upd.MemberLimit, upd.Status, upd.NextBillingDate, upd.GracePeriodDays)
}

// GetNotifications возвращает последние уведомления пользователя.
func (s *Service) GetNotifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	return s.repo.GetNotifications(ctx, userID)
}

// GetUnreadCount возвращает число непрочитанных уведомлений пользователя.
func (s *Service) GetUnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.GetUnreadCount(ctx, userID)
}

// MarkNotificationRead помечает уведомление прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id)
}

// MarkAllNotificationsRead помечает все уведомления пользователя прочитанными.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllNotificationsRead(ctx, userID)
}

// CreatePixCharge создаёт Pix-платёж для оплаты подписки пользователем.
// Обращение к шлюзу выполняется вне каких-либо транзакций БД.
func (s *Service) CreatePixCharge(ctx context.Context, userID int64, amountCents int64, taxID string) (*payments.PixCharge, error) {
	if s.paymentClient == nil {
		return nil, errors.New("payments are not configured")
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	referenceID := fmt.Sprintf("REF-%d-%d", userID, time.Now().Unix())

	return s.paymentClient.CreatePixCharge(ctx, referenceID, amountCents, payments.Customer{
		Name:  u.Name,
		Email: u.Email,
		TaxID: taxID,
	})
}

// StartBillingReminders запускает фоновый процесс напоминаний об оплате
// владельцам клубов с просроченной подпиской.
func (s *Service) StartBillingReminders(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.processReminderBatch(ctx)
			}
		}
	}()
}

func (s *Service) processReminderBatch(ctx context.Context) {
	overdue, err := s.repo.GetOverdueClubs(ctx, time.Now(), 100)
	if err != nil {
		return
	}

	for _, o := range overdue {
		s.notifier.Notify(ctx, o.OwnerID, "Assinatura vencida",
			fmt.Sprintf("A assinatura do clube %s está vencida. Regularize o pagamento para liberar as operações.", o.ClubName),
			model.NotificationWarning)
	}
}

func clubIDOrZero(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}

func sameClub(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}
