package push

import (
	"errors"
	"log/slog"

	"github.com/mlahtinen/paced/internal/store"
)

// Notifier fans one payload out to every subscription of a user, pruning
// endpoints the push service reports as gone. Handlers call this for
// event-driven notifications (cheers, friend requests).
type Notifier struct {
	service *Service
	push    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(svc *Service, pushStore *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{service: svc, push: pushStore, logger: logger}
}

func (n *Notifier) NotifyUser(userID int64, payload Payload) {
	subs, err := n.push.ListByUser(userID)
	if err != nil {
		n.logger.Error("list subscriptions", "user", userID, "error", err)
		return
	}

	for _, sub := range subs {
		if err := n.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.push.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Error("prune expired subscription", "error", err)
				}
				continue
			}
			n.logger.Error("send notification", "user", userID, "error", err)
		}
	}
}
