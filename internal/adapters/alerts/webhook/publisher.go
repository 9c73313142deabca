// Package webhook publica alertas de dosis como CloudEvents (modo
// estructurado, JSON) hacia un endpoint HTTP.
package webhook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"medidispense/internal/domain/alerts"
	"medidispense/internal/platform/httpclient"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

const (
	DefaultSource = "medidispense/monitor"

	// Tipo CloudEvents en notación reverse-DNS del evento medicine_alert.
	EventType = "com.medidispense." + alerts.EventType

	contentType = "application/cloudevents+json"
)

type Publisher struct {
	url    string
	source string
	client *httpclient.Client
	now    func() time.Time
}

func New(url string, client *httpclient.Client) *Publisher {
	if client == nil {
		client = httpclient.New(httpclient.DefaultTimeout)
	}
	return &Publisher{
		url:    strings.TrimSpace(url),
		source: DefaultSource,
		client: client,
		now:    time.Now,
	}
}

func (p *Publisher) Publish(ctx context.Context, a alerts.Alert) error {
	ev, err := p.event(a)
	if err != nil {
		return err
	}
	if err := p.client.PostJSON(ctx, p.url, map[string]string{"Content-Type": contentType}, ev); err != nil {
		return fmt.Errorf("webhook: post alert %s: %w", a.PatientID, err)
	}
	return nil
}

func (p *Publisher) event(a alerts.Alert) (cloudevents.Event, error) {
	ev := cloudevents.NewEvent()
	ev.SetID(eventID())
	ev.SetSource(p.source)
	ev.SetType(EventType)
	ev.SetSubject(a.PatientID)
	ev.SetTime(p.now())
	if err := ev.SetData(cloudevents.ApplicationJSON, a); err != nil {
		return ev, fmt.Errorf("webhook: encode alert: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return ev, fmt.Errorf("webhook: invalid event: %w", err)
	}
	return ev, nil
}

// eventID usa UUIDv7 (ordenable por tiempo); v4 si v7 falla.
func eventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
