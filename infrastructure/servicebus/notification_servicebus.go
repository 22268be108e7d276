package servicebus

import (
	"context"
	"encoding/json"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus authenticates against the namespace with the default Azure credential chain.
func NewServiceBus(ctx context.Context, namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, err
	}
	return azservicebus.NewClient(namespace, cred, nil)
}

type Notifier struct {
	client *azservicebus.Client
	queue  string
}

func NewNotifier(client *azservicebus.Client, queue string) *Notifier {
	return &Notifier{client: client, queue: queue}
}

func newMessage(n model.Notification) (*azservicebus.Message, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	subject := string(n.Kind)
	contentType := "application/json"
	return &azservicebus.Message{
		Body:        body,
		Subject:     &subject,
		ContentType: &contentType,
		ApplicationProperties: map[string]interface{}{
			"tenant_id": n.TenantID,
		},
	}, nil
}

func (s *Notifier) Notify(ctx context.Context, notification model.Notification) {
	log := logger.GetLogger().
		WithField("kind", notification.Kind).
		WithField("tenant_id", notification.TenantID)
	if s.client == nil {
		log.Warn("Service Bus client not configured; notification dropped")
		return
	}

	msg, err := newMessage(notification)
	if err != nil {
		log.WithField("error", err).Error("Error while encoding notification")
		return
	}
	sender, err := s.client.NewSender(s.queue, nil)
	if err != nil {
		log.WithField("error", err).Error("Error while making new sender service bus.")
		return
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		if err := sender.Close(ctx); err != nil {
			log.WithField("error", err).Error("Error while closing sender.")
		}
	}(sender, context.Background())

	if err := sender.SendMessage(ctx, msg, nil); err != nil {
		log.WithField("error", err).Error("Error while sending message.")
		return
	}
	log.Info("Notification sent")
}

var _ repository.INotifier = (*Notifier)(nil)
