package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessaging_PublishLoginEvent(t *testing.T) {
	broker := messaging.NewMemory()
	m := NewMessaging(broker, instrument.NewNoop())

	ctx := instrument.SetCorrelationID(context.Background(), "cid-ctx")
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, m.PublishLoginEvent(ctx, entity.AuditEntry{
		ID:             7,
		IdentifierHash: "h",
		IdentifierKind: entity.IdentifierKindPhone,
		MaskedValue:    "***5678",
		Event:          entity.LoginEventBlocked,
		Attempt:        5,
		OccurredAt:     at,
	}))

	msgs := broker.Messages(event.AuthDestination)
	require.Len(t, msgs, 1)
	assert.Equal(t, map[string]string{"cID": "cid-ctx"}, msgs[0].Headers)
	assert.Equal(t, []byte("h"), msgs[0].Key)

	var got event.AuthMessage
	require.NoError(t, json.Unmarshal(msgs[0].Body, &got))
	assert.Equal(t, "blocked", got.Event)
	assert.Equal(t, "phone", got.IdentifierKind)
	assert.Equal(t, 5, got.Attempt)
	assert.NotContains(t, string(msgs[0].Body), "+52", "raw identifiers never leave the portal")

	require.NoError(t, broker.Close())
	assert.Error(t, m.PublishLoginEvent(ctx, entity.AuditEntry{Event: entity.LoginEventLogout}))
}
