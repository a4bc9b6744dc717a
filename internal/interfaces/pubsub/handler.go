package pubsub

import (
	"context"
	"errors"
	"log"

	"mailsort/internal/domain/email"
	infrapubsub "mailsort/internal/infrastructure/pubsub"
	"mailsort/internal/interfaces/worker"
)

type UserLookup interface {
	GetByEmail(ctx context.Context, address string) (*email.User, error)
}

type JobSubmitter interface {
	Submit(job worker.SyncJob) bool
}

// Handler turns Gmail push notifications into sync jobs.
type Handler struct {
	users UserLookup
	pool  JobSubmitter
}

func NewHandler(users UserLookup, pool JobSubmitter) *Handler {
	return &Handler{
		users: users,
		pool:  pool,
	}
}

func (h *Handler) HandleNotification(ctx context.Context, n infrapubsub.Notification) {
	user, err := h.users.GetByEmail(ctx, n.EmailAddress)
	if errors.Is(err, email.ErrNotFound) {
		log.Printf("Notification for unknown account %s ignored", n.EmailAddress)
		return
	}
	if err != nil {
		log.Printf("Failed to look up account %s: %v", n.EmailAddress, err)
		return
	}

	if !h.pool.Submit(worker.SyncJob{UserID: user.ID}) {
		log.Printf("Worker pool closed, dropping sync for %s (historyID: %d)", n.EmailAddress, n.HistoryID)
	}
}
