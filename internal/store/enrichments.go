package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gigscout/internal/models"
)

// UpsertEnrichment creates or overwrites the enrichment row for an event.
// Only the enrichment batch calls this; at most one row exists per event.
// The sale windows envelope is validated before it is written.
func (s *Store) UpsertEnrichment(ctx context.Context, enrichment *models.Enrichment) error {
	var saleWindows []byte
	if enrichment.SaleWindows != nil {
		if err := enrichment.SaleWindows.Validate(); err != nil {
			return fmt.Errorf("sale windows: %w", err)
		}
		var err error
		saleWindows, err = json.Marshal(enrichment.SaleWindows)
		if err != nil {
			return fmt.Errorf("marshal sale windows: %w", err)
		}
	}

	query := `
		INSERT INTO enrichments (event_id, ticket_platform_id, ticket_platform_name,
		                         ticket_url, preferred_title, sale_windows, supporting_acts,
		                         category, category_confidence, music_platform_id,
		                         knowledge_graph_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_id) DO UPDATE SET
			ticket_platform_id   = EXCLUDED.ticket_platform_id,
			ticket_platform_name = EXCLUDED.ticket_platform_name,
			ticket_url           = EXCLUDED.ticket_url,
			preferred_title      = EXCLUDED.preferred_title,
			sale_windows         = EXCLUDED.sale_windows,
			supporting_acts      = EXCLUDED.supporting_acts,
			category             = EXCLUDED.category,
			category_confidence  = EXCLUDED.category_confidence,
			music_platform_id    = EXCLUDED.music_platform_id,
			knowledge_graph_id   = EXCLUDED.knowledge_graph_id,
			processed_at         = CURRENT_TIMESTAMP
		RETURNING processed_at
	`

	err := s.db.QueryRowContext(ctx, query,
		enrichment.EventID, enrichment.TicketPlatformID, enrichment.TicketPlatformName,
		enrichment.TicketURL, enrichment.PreferredTitle, saleWindows,
		pq.Array(enrichment.SupportingActs), enrichment.Category,
		enrichment.CategoryConfidence, enrichment.MusicPlatformID,
		enrichment.KnowledgeGraphID,
	).Scan(&enrichment.ProcessedAt)

	if err != nil {
		return fmt.Errorf("upsert enrichment for event %d: %w", enrichment.EventID, err)
	}

	return nil
}

// GetEnrichment retrieves the enrichment row for an event.
func (s *Store) GetEnrichment(ctx context.Context, eventID int64) (*models.Enrichment, error) {
	query := `
		SELECT event_id, ticket_platform_id, ticket_platform_name, ticket_url,
		       preferred_title, sale_windows, supporting_acts, category,
		       category_confidence, music_platform_id, knowledge_graph_id,
		       processed_at
		FROM enrichments
		WHERE event_id = $1
	`

	var e models.Enrichment
	var saleWindows []byte
	err := s.db.QueryRowContext(ctx, query, eventID).Scan(
		&e.EventID, &e.TicketPlatformID, &e.TicketPlatformName, &e.TicketURL,
		&e.PreferredTitle, &saleWindows, pq.Array(&e.SupportingActs), &e.Category,
		&e.CategoryConfidence, &e.MusicPlatformID, &e.KnowledgeGraphID,
		&e.ProcessedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEnrichmentNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(saleWindows) > 0 {
		var sw models.SaleWindows
		if err := json.Unmarshal(saleWindows, &sw); err != nil {
			return nil, fmt.Errorf("unmarshal sale windows: %w", err)
		}
		if err := sw.Validate(); err != nil {
			return nil, fmt.Errorf("stored sale windows: %w", err)
		}
		e.SaleWindows = &sw
	}

	return &e, nil
}

// DeleteAllEnrichments removes every enrichment row. This is the destructive
// half of force mode: afterwards every event is eligible for reprocessing.
func (s *Store) DeleteAllEnrichments(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM enrichments`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
