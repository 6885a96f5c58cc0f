package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/portal/internal/analytics/entity"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/messaging"
	"github.com/shandysiswandi/portal/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const (
	keyOfCorrelationID = "cID"
	keyOfEvent         = "event"
)

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishEvent(ctx context.Context, ev entity.Event) (err error) {
	ctx, span := m.ins.Tracer("analytics.outbound.mq").Start(ctx, "PublishEvent")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	body, err := json.Marshal(event.AnalyticsMessage{
		Event:      ev.Name,
		Properties: ev.Properties,
		UserID:     ev.UserID,
		SessionID:  ev.SessionID,
		IP:         ev.IP,
		UserAgent:  ev.UserAgent,
		Timestamp:  ev.Timestamp,
		ReceivedAt: ev.ReceivedAt,
	})
	if err != nil {
		return err
	}

	msg := messaging.Message{
		Body: body,
		Headers: map[string]string{
			keyOfEvent:         ev.Name,
			keyOfCorrelationID: instrument.GetCorrelationID(ctx),
		},
	}
	if ev.SessionID != "" {
		msg.Key = []byte(ev.SessionID)
	}

	return m.client.Publish(ctx, event.AnalyticsDestination, msg)
}
