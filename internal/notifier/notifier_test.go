package notifier

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/rankingdbv/ranking-system/internal/model"
)

type stubStore struct {
	created []*model.Notification
	err     error
}

func (s *stubStore) CreateNotification(ctx context.Context, n *model.Notification) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.created = append(s.created, n)
	return int64(len(s.created)), nil
}

func TestNotify(t *testing.T) {
	store := &stubStore{}
	n := New(store, zap.NewNop())

	n.Notify(context.Background(), 7, "Bem-vindo!", "Sua conta foi criada.", model.NotificationInfo)

	if len(store.created) != 1 {
		t.Fatalf("notifications created = %d, want 1", len(store.created))
	}

	got := store.created[0]
	if got.UserID != 7 || got.Title != "Bem-vindo!" || got.Type != model.NotificationInfo {
		t.Fatalf("unexpected notification: %+v", got)
	}
}

func TestNotify_StoreFailureDoesNotPanic(t *testing.T) {
	store := &stubStore{err: errors.New("db down")}
	n := New(store, zap.NewNop())

	n.Notify(context.Background(), 7, "Compra realizada", "ok", model.NotificationSuccess)
}
