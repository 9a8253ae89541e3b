// Package model содержит доменные сущности сервиса RankingDBV.
package model

import "time"

// Role описывает роль участника внутри клуба.
type Role string

const (
	RoleOwner      Role = "OWNER"
	RoleAdmin      Role = "ADMIN"
	RoleDirector   Role = "DIRECTOR"
	RoleCounselor  Role = "COUNSELOR"
	RoleInstructor Role = "INSTRUCTOR"
	RolePathfinder Role = "PATHFINDER"
	RoleParent     Role = "PARENT"
	RoleMaster     Role = "MASTER"
	RoleRegional   Role = "REGIONAL"
)

// PlanTier описывает тарифный план подписки клуба.
type PlanTier string

const (
	PlanTrial PlanTier = "TRIAL"
	PlanFree  PlanTier = "FREE"
	PlanP     PlanTier = "PLAN_P"
	PlanM     PlanTier = "PLAN_M"
	PlanG     PlanTier = "PLAN_G"
)

// SubscriptionStatus описывает хранимый статус подписки клуба.
type SubscriptionStatus string

const (
	SubscriptionTrial    SubscriptionStatus = "TRIAL"
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionOverdue  SubscriptionStatus = "OVERDUE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Club представляет клуб — границу арендатора. Биллинговые поля меняются
// только операцией управления подпиской.
type Club struct {
	ID                 int64
	Name               string
	PlanTier           PlanTier
	SubscriptionStatus SubscriptionStatus
	MemberLimit        int
	NextBillingDate    *time.Time
	GracePeriodDays    int
	CreatedAt          time.Time
}

// User представляет участника клуба. Поле Points — кэшируемая проекция
// суммы записей журнала баллов, поддерживается транзакционно вместе с ним.
type User struct {
	ID           int64
	ClubID       *int64
	Name         string
	Email        string
	PasswordHash []byte
	Role         Role
	IsActive     bool
	Points       int64
	CreatedAt    time.Time
}

// PointsSource описывает источник изменения баллов.
type PointsSource string

const (
	PointsSourceManual   PointsSource = "MANUAL"
	PointsSourcePurchase PointsSource = "PURCHASE"
	PointsSourceActivity PointsSource = "ACTIVITY"
)

// PointsEntry описывает одну запись журнала баллов (append-only).
type PointsEntry struct {
	ID        int64
	UserID    int64
	Amount    int64
	Reason    string
	Source    PointsSource
	AwardedAt time.Time
}

// ProductCategory различает физические и виртуальные товары.
type ProductCategory string

const (
	ProductReal    ProductCategory = "REAL"
	ProductVirtual ProductCategory = "VIRTUAL"
)

// UnlimitedStock — сентинел неограниченного остатка товара.
const UnlimitedStock = -1

// Product описывает товар клубного магазина.
type Product struct {
	ID        int64
	ClubID    int64
	Name      string
	Price     int64
	Stock     int64
	Category  ProductCategory
	CreatedAt time.Time
}

// PurchaseStatus описывает статус выдачи покупки.
type PurchaseStatus string

const (
	PurchasePending PurchaseStatus = "PENDING"
	PurchaseApplied PurchaseStatus = "APPLIED"
)

// Purchase фиксирует покупку товара участником. Запись неизменяема после
// создания, кроме единственного перехода статуса PENDING -> APPLIED.
type Purchase struct {
	ID        int64
	UserID    int64
	ProductID int64
	Cost      int64
	Status    PurchaseStatus
	CreatedAt time.Time
}

// NotificationType описывает важность уведомления.
type NotificationType string

const (
	NotificationInfo    NotificationType = "INFO"
	NotificationSuccess NotificationType = "SUCCESS"
	NotificationWarning NotificationType = "WARNING"
	NotificationError   NotificationType = "ERROR"
)

// Notification описывает уведомление пользователя.
type Notification struct {
	ID        int64
	UserID    int64
	Title     string
	Message   string
	Type      NotificationType
	Read      bool
	CreatedAt time.Time
}

// RankingEntry описывает одну строку рейтинга клуба по баллам.
type RankingEntry struct {
	UserID int64
	Name   string
	Points int64
	Role   Role
}

// ClubStatus объединяет биллинговые поля клуба и текущее число активных
// участников — используется в кабинете управления подпиской.
type ClubStatus struct {
	Club          Club
	ActiveMembers int
}
