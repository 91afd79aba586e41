package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/carewave/callcare-backend/internal/model"
)

type WebhookEventRepositoryInterface interface {
	// Record inserts an event and reports whether it was new. A false return
	// means this provider event id was already applied.
	Record(ev *model.WebhookEvent) (bool, error)
	Seen(providerEventID string) (bool, error)
}

type WebhookEventRepository struct {
	DB *sql.DB
}

func (r *WebhookEventRepository) Record(ev *model.WebhookEvent) (bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if len(ev.Payload) == 0 {
		ev.Payload = json.RawMessage(`{}`)
	}
	query := `
        INSERT INTO webhook_events (id, provider_event_id, organization_id, call_id, type, payload, processed_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (provider_event_id) DO NOTHING
    `
	res, err := r.DB.Exec(query, ev.ID, ev.ProviderEventID, ev.OrganizationID, ev.CallID, ev.Type, ev.Payload)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *WebhookEventRepository) Seen(providerEventID string) (bool, error) {
	var one int
	err := r.DB.QueryRow(`SELECT 1 FROM webhook_events WHERE provider_event_id=$1 LIMIT 1`, providerEventID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ WebhookEventRepositoryInterface = (*WebhookEventRepository)(nil)
