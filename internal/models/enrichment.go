package models

import (
	"errors"
	"fmt"
	"time"
)

// SaleWindowsVersion is the current schema version for the sale_windows
// jsonb column. Readers reject versions they do not know.
const SaleWindowsVersion = 1

var (
	ErrSaleWindowName    = errors.New("sale window name is required")
	ErrSaleWindowRange   = errors.New("sale window start must precede end")
	ErrSaleWindowOrder   = errors.New("sale windows must be ordered by start time")
	ErrSaleWindowVersion = errors.New("unsupported sale windows version")
)

// SaleWindow is one named on-sale or presale time range.
type SaleWindow struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// SaleWindows is the versioned envelope stored in enrichments.sale_windows.
type SaleWindows struct {
	Version int          `json:"version"`
	Windows []SaleWindow `json:"windows"`
}

// Validate enforces the write-time contract: known version, named windows,
// start before end, windows ordered by start.
func (s SaleWindows) Validate() error {
	if s.Version != SaleWindowsVersion {
		return fmt.Errorf("%w: %d", ErrSaleWindowVersion, s.Version)
	}
	for i, w := range s.Windows {
		if w.Name == "" {
			return ErrSaleWindowName
		}
		if !w.Start.Before(w.End) {
			return fmt.Errorf("%w: %q", ErrSaleWindowRange, w.Name)
		}
		if i > 0 && w.Start.Before(s.Windows[i-1].Start) {
			return ErrSaleWindowOrder
		}
	}
	return nil
}

// Enrichment is the optional 1:1 extension of an Event holding metadata
// gathered from downstream providers. Absence of a row means "not yet
// processed"; a processed-but-empty result is still written so the event is
// not retried every batch.
type Enrichment struct {
	EventID            int64        `json:"event_id"`
	TicketPlatformID   string       `json:"ticket_platform_id,omitempty"`
	TicketPlatformName string       `json:"ticket_platform_name,omitempty"`
	TicketURL          string       `json:"ticket_url,omitempty"`
	PreferredTitle     bool         `json:"preferred_title"`
	SaleWindows        *SaleWindows `json:"sale_windows,omitempty"`
	SupportingActs     []string     `json:"supporting_acts,omitempty"`
	Category           string       `json:"category,omitempty"`
	CategoryConfidence *float64     `json:"category_confidence,omitempty"`
	MusicPlatformID    string       `json:"music_platform_id,omitempty"`
	KnowledgeGraphID   string       `json:"knowledge_graph_id,omitempty"`
	ProcessedAt        time.Time    `json:"processed_at"`
}
