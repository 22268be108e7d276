package servicebus

import (
	"context"
	"encoding/json"
	"testing"

	"social-publisher/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	msg, err := newMessage(model.Notification{
		Kind:     model.NotificationConnectionExpired,
		TenantID: "t9",
		Payload:  map[string]interface{}{"platform": "linkedin"},
	})
	require.NoError(t, err)
	require.NotNil(t, msg.Subject)
	assert.Equal(t, "connection_expired", *msg.Subject)
	assert.Equal(t, "application/json", *msg.ContentType)
	assert.Equal(t, "t9", msg.ApplicationProperties["tenant_id"])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "connection_expired", decoded["kind"])
}

func TestNotifier_NilClientDropsQuietly(t *testing.T) {
	n := NewNotifier(nil, "connection-events")
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), model.Notification{Kind: model.NotificationConnectionExpiring})
	})
}
