// Package notifier реализует побочный канал уведомлений пользователей.
package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/rankingdbv/ranking-system/internal/model"
)

// Store описывает контракт сохранения уведомлений.
type Store interface {
	CreateNotification(ctx context.Context, n *model.Notification) (int64, error)
}

// Notifier сохраняет уведомления пользователям. Доставка выполняется по принципу
// fire-and-forget: сбой записи уведомления логируется и никогда не влияет на
// породившую его операцию.
type Notifier struct {
	store  Store
	logger *zap.Logger
}

// New создаёт Notifier поверх указанного хранилища.
func New(store Store, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, logger: logger}
}

// Notify сохраняет уведомление. Ошибки не возвращаются вызывающему.
func (n *Notifier) Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType) {
	_, err := n.store.CreateNotification(ctx, &model.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    typ,
	})
	if err != nil {
		n.logger.Warn("notification delivery failed",
			zap.Error(err),
			zap.Int64("userID", userID),
			zap.String("title", title),
		)
	}
}
