package domain

import "time"

type VisitCounter struct {
	Key       string    `json:"key"`
	Count     int64     `json:"count"`
	UpdatedAt time.Time `json:"lastUpdated"`
}

type VisitStats struct {
	TotalVisits    int64          `json:"totalVisits"`
	UniqueVisitors int64          `json:"uniqueVisitors"`
	Counters       []VisitCounter `json:"details"`
}
