package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/portal/internal/auth/entity"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishLoginEvent(ctx context.Context, in entity.AuditEntry) error {
	ctx, span := m.ins.Tracer("auth.outbound.mq").Start(ctx, "PublishLoginEvent")
	defer span.End()

	body, err := json.Marshal(event.AuthMessage{
		ID:             in.ID,
		Event:          string(in.Event),
		IdentifierHash: in.IdentifierHash,
		IdentifierKind: in.IdentifierKind.String(),
		MaskedValue:    in.MaskedValue,
		Attempt:        in.Attempt,
		UserID:         in.UserID,
		OccurredAt:     in.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := in.CorrelationID
	if cID == "" {
		cID = instrument.GetCorrelationID(ctx)
	}
	if err := m.client.Publish(ctx, event.AuthDestination, messaging.Message{
		Key:     []byte(in.IdentifierHash),
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
