package models

import "time"

// CacheEntry is a timestamped stored copy of a CreatureRecord.
type CacheEntry struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Record      CreatureRecord `json:"record"`
	LastUpdated time.Time      `json:"last_updated"`
}

// CacheStats reports cache contents and fetch-through performance.
type CacheStats struct {
	Entries       int64     `json:"entries"`
	Hits          int64     `json:"hits"`
	Misses        int64     `json:"misses"`
	RemoteFetches int64     `json:"remote_fetches"`
	FetchErrors   int64     `json:"fetch_errors"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ListQuery selects a page of cached creatures.
// Type and Name are optional; Name matches as a case-insensitive substring.
type ListQuery struct {
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Type   string `json:"type,omitempty"`
	Name   string `json:"name,omitempty"`
}

// ListResult is one page of creatures plus paging hints.
type ListResult struct {
	Creatures  []CreatureRecord `json:"creatures"`
	TotalCount int              `json:"total_count"`
	HasMore    bool             `json:"has_more"`
}
