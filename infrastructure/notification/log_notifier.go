package notification

import (
	"context"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"
	"social-publisher/infrastructure/logger"

	"github.com/sirupsen/logrus"
)

// LogNotifier writes notifications to the structured log. Used when no broker is configured.
type LogNotifier struct {
	log *logrus.Logger
}

func NewLogNotifier(log *logrus.Logger) *LogNotifier {
	if log == nil {
		log = logger.GetLogger().Logger
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, notification model.Notification) {
	entry := n.log.WithFields(logrus.Fields{
		"kind":      notification.Kind,
		"tenant_id": notification.TenantID,
		"payload":   notification.Payload,
	})
	if notification.Recipient != nil {
		entry = entry.WithField("recipient", notification.Recipient.Email)
	}
	entry.Warn("Connection notification")
}

var _ repository.INotifier = (*LogNotifier)(nil)
