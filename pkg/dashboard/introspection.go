package dashboard

import (
	"time"

	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	SourceType     string     `json:"source_type"`
	GatewayType    string     `json:"gateway_type"`
	Sections       int        `json:"sections"`
	SearchQuery    string     `json:"search_query,omitempty"`
	LastRefresh    *time.Time `json:"last_refresh,omitempty"`
	LastItems      int        `json:"last_items"`
	DateCacheSize  int        `json:"date_cache_size"`
	TaskDateCache  int        `json:"task_date_cache"`
	BulkConcurrent int        `json:"bulk_concurrency"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ServiceState{
		SourceType:     componentType(s.source, "source"),
		GatewayType:    componentType(s.gateway, "gateway"),
		Sections:       len(s.config.Sections),
		SearchQuery:    s.search,
		LastRefresh:    s.lastRefresh,
		LastItems:      s.lastItems,
		DateCacheSize:  s.classifier.Dates().CacheLen(),
		TaskDateCache:  s.classifier.TaskDates().Len(),
		BulkConcurrent: s.bulk,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "dashboard"
}

func componentType(v any, fallback string) string {
	if v == nil {
		return "none"
	}
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var (
	_ introspection.Introspectable = (*Service)(nil)
	_ introspection.Component      = (*Service)(nil)
)
