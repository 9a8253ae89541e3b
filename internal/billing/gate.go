// Package billing содержит проверку доступа на запись по состоянию подписки клуба.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rankingdbv/ranking-system/internal/model"
	"github.com/rankingdbv/ranking-system/internal/repository"
)

// BillingReader описывает контракт чтения биллинговых полей клуба.
type BillingReader interface {
	GetClubBilling(ctx context.Context, clubID int64) (*repository.ClubBilling, error)
}

// AccessDeniedError возвращается, когда подписка клуба просрочена.
// Сообщение адресовано пользователю и содержит имя клуба.
type AccessDeniedError struct {
	ClubName string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("Ação Bloqueada: O clube %s está com assinatura vencida.", e.ClubName)
}

// Gate решает, разрешена ли клубу модифицирующая операция. Состояние не
// кэшируется: статус биллинга может измениться между запросами, поэтому
// каждая проверка читает клуб заново.
type Gate struct {
	repo BillingReader
	now  func() time.Time
}

// NewGate создаёт проверку доступа с системными часами.
func NewGate(repo BillingReader) *Gate {
	return &Gate{repo: repo, now: time.Now}
}

// NewGateWithClock создаёт проверку доступа с внешними часами (для тестов).
func NewGateWithClock(repo BillingReader, now func() time.Time) *Gate {
	return &Gate{repo: repo, now: now}
}

// CheckWriteAccess возвращает AccessDeniedError, если подписка клуба просрочена.
// clubID == 0 означает операцию вне клуба и пропускается. Несуществующий клуб
// тоже пропускается: заблокировать доступ несуществующему арендатору нельзя.
func (g *Gate) CheckWriteAccess(ctx context.Context, clubID int64) error {
	if clubID == 0 {
		return nil
	}

	b, err := g.repo.GetClubBilling(ctx, clubID)
	if err != nil {
		if errors.Is(err, repository.ErrClubNotFound) {
			return nil
		}
		return fmt.Errorf("check write access: %w", err)
	}

	if overdueAt(b.Status, b.NextBillingDate, b.GracePeriodDays, g.now()) {
		return &AccessDeniedError{ClubName: b.Name}
	}

	return nil
}

// overdueAt вычисляет эффективное состояние подписки. Хранимому статусу
// нельзя доверять в одиночку: клуб может числиться ACTIVE, но вести себя
// как просроченный после прохождения льготного срока.
func overdueAt(status model.SubscriptionStatus, nextBillingDate *time.Time, graceDays int, now time.Time) bool {
	if status == model.SubscriptionOverdue || status == model.SubscriptionCanceled {
		return true
	}

	if nextBillingDate == nil {
		return false
	}

	if graceDays < 0 {
		graceDays = 0
	}

	cutoff := nextBillingDate.AddDate(0, 0, graceDays)
	return now.After(cutoff)
}
