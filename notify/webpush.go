package notify

import (
	"context"
	"encoding/json"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
)

// Subscription is one browser push endpoint, keyed by its endpoint URL.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// SubscriptionStore persists push subscriptions. The SQLite journal
// implements it.
type SubscriptionStore interface {
	UpsertSubscription(sub Subscription) error
	RemoveSubscription(endpoint string) error
	ListSubscriptions() ([]Subscription, error)
}

// Sender delivers a Descriptor to whoever is listening.
type Sender interface {
	Send(ctx context.Context, d Descriptor) error
}

// NopSender drops every notification. Used when push is not configured
// and in tests.
type NopSender struct{}

func (NopSender) Send(context.Context, Descriptor) error { return nil }

// WebPushSender fans a Descriptor out to every stored subscription via
// the Web Push protocol. Endpoints that answer 404/410 are pruned.
type WebPushSender struct {
	store      SubscriptionStore
	subscriber string
	publicKey  string
	privateKey string
	log        *zap.Logger
}

func NewWebPushSender(store SubscriptionStore, subscriber, publicKey, privateKey string, log *zap.Logger) *WebPushSender {
	if log == nil {
		log = zap.NewNop()
	}
	return &WebPushSender{
		store:      store,
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		log:        log,
	}
}

// Send pushes to all subscribers. Individual endpoint failures are
// logged and skipped so one dead device cannot block the rest.
func (s *WebPushSender) Send(ctx context.Context, d Descriptor) error {
	subs, err := s.store.ListSubscriptions()
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		return nil
	}

	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}, &webpush.Options{
			Subscriber:      s.subscriber,
			VAPIDPublicKey:  s.publicKey,
			VAPIDPrivateKey: s.privateKey,
			TTL:             60,
		})
		if err != nil {
			s.log.Warn("push send failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			continue
		}
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			if err := s.store.RemoveSubscription(sub.Endpoint); err != nil {
				s.log.Warn("prune subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			}
		}
		resp.Body.Close()
	}
	return nil
}
