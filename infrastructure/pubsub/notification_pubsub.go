package pubsub

import (
	"context"
	"encoding/json"
	"sync"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	return pubsub.NewClient(ctx, projectID)
}

// Notifier publishes connection notifications to a Pub/Sub topic.
type Notifier struct {
	client  *pubsub.Client
	topicID string

	mu    sync.Mutex
	topic *pubsub.Topic
}

func NewNotifier(client *pubsub.Client, topicID string) *Notifier {
	return &Notifier{client: client, topicID: topicID}
}

// ensureTopic creates the topic on first use if it does not exist.
func (n *Notifier) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.topic != nil {
		return n.topic, nil
	}

	topic := n.client.Topic(n.topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", n.topicID).Info("Topic doesn't exist - creating it")
		if topic, err = n.client.CreateTopic(ctx, n.topicID); err != nil {
			return nil, err
		}
	}
	n.topic = topic
	return topic, nil
}

func (n *Notifier) Notify(ctx context.Context, notification model.Notification) {
	log := logger.GetLogger().
		WithField("kind", notification.Kind).
		WithField("tenant_id", notification.TenantID)
	if n.client == nil {
		log.Warn("Pub/Sub client not configured; notification dropped")
		return
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		log.WithField("error", err).Error("Error while encoding notification")
		return
	}
	topic, err := n.ensureTopic(ctx)
	if err != nil {
		log.WithField("error", err).Error("Error while resolving notification topic")
		return
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"kind":      string(notification.Kind),
			"tenant_id": notification.TenantID,
		},
	}).Get(ctx)
	if err != nil {
		log.WithField("error", err).Error("Error while publishing notification")
		return
	}
	log.WithField("server_id", serverID).Info("Notification published")
}

// Stop flushes pending publishes.
func (n *Notifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.topic != nil {
		n.topic.Stop()
	}
}

var _ repository.INotifier = (*Notifier)(nil)
