package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"cloud.google.com/go/pubsub"
)

// Notification is the payload Gmail publishes when a watched mailbox changes.
type Notification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Subscriber receives Gmail push notifications from one subscription.
type Subscriber struct {
	client         *pubsub.Client
	subscriptionID string

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSubscriber(ctx context.Context, projectID, subscriptionID string) (*Subscriber, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &Subscriber{
		client:         client,
		subscriptionID: subscriptionID,
		seen:           make(map[string]struct{}),
	}, nil
}

// Listen blocks until ctx is done, passing every new notification to
// handler. Malformed and duplicate messages are acked and dropped.
func (s *Subscriber) Listen(ctx context.Context, handler func(ctx context.Context, n Notification)) error {
	sub := s.client.Subscription(s.subscriptionID)

	log.Printf("Pub/Sub listener started on %s", s.subscriptionID)

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		defer m.Ack()

		n, ok := s.accept(m.Data)
		if !ok {
			return
		}

		log.Printf("New notification - %s (historyID: %d)", n.EmailAddress, n.HistoryID)
		handler(ctx, n)
	})
}

func (s *Subscriber) Close() error {
	return s.client.Close()
}

// accept decodes data and reports whether the notification is new.
func (s *Subscriber) accept(data []byte) (Notification, bool) {
	n, err := parseNotification(data)
	if err != nil {
		log.Printf("Parse notification error: %v", err)
		return Notification{}, false
	}

	key := fmt.Sprintf("%s/%d", n.EmailAddress, n.HistoryID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return Notification{}, false
	}
	s.seen[key] = struct{}{}

	return n, true
}

func parseNotification(data []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return n, fmt.Errorf("unmarshal notification: %w", err)
	}
	if n.EmailAddress == "" {
		return n, fmt.Errorf("notification without emailAddress")
	}
	return n, nil
}
