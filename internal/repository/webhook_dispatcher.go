package repository

import (
	"context"
	"fmt"

	"NotiGate/internal/domain/models"
	"NotiGate/internal/domain/repository"
	pkghttp "NotiGate/pkg/http"
)

// WebhookDispatcher delivers notifications as JSON POSTs to configured
// webhook endpoints. All endpoints receive every notification; the first
// failure aborts and is reported to the caller.
type WebhookDispatcher struct {
	client    *pkghttp.Client
	endpoints []string
}

func NewWebhookDispatcher(client *pkghttp.Client, endpoints []string) repository.Dispatcher {
	return &WebhookDispatcher{client: client, endpoints: endpoints}
}

func (d *WebhookDispatcher) Dispatch(ctx context.Context, n *models.Notification) error {
	if n == nil || len(d.endpoints) == 0 {
		return nil
	}
	for _, url := range d.endpoints {
		err := d.client.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodPost,
			URL:    url,
			Body:   n,
		}, nil)
		if err != nil {
			return fmt.Errorf("webhook %s: %w", url, err)
		}
	}
	return nil
}
