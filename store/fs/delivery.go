package fs

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xraph/inbox/delivery"
	"github.com/xraph/inbox/id"
)

// SaveDelivery writes the delivery record. Deliveries carry no index;
// listing scans the directory.
func (s *Store) SaveDelivery(_ context.Context, d *delivery.Delivery) error {
	if !d.ID.Safe() || !d.WebhookID.Safe() {
		return fmt.Errorf("fs: save delivery: unsafe id %q/%q", d.WebhookID, d.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writeJSON(s.deliveryPath(d.WebhookID.String(), d.ID.String()), d)
}

// ListDeliveries scans the webhook's delivery directory, skipping files
// that no longer parse, and returns the result newest-first. limit 0 means
// no cap.
func (s *Store) ListDeliveries(_ context.Context, webhookID id.ID, limit int) ([]*delivery.Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !webhookID.Safe() {
		return []*delivery.Delivery{}, nil
	}

	entries, err := os.ReadDir(s.deliveriesDir(webhookID.String()))
	if err != nil {
		if os.IsNotExist(err) {
			return []*delivery.Delivery{}, nil
		}
		return nil, fmt.Errorf("fs: list deliveries: %w", err)
	}

	result := make([]*delivery.Delivery, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		var d delivery.Delivery
		if err := s.readJSON(s.deliveryPath(webhookID.String(), strings.TrimSuffix(name, ".json")), &d); err != nil {
			continue
		}
		result = append(result, &d)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ReceivedAt.After(result[j].ReceivedAt)
	})

	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}
