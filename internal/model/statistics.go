package model

import "github.com/google/uuid"

// StatusCount is one row of a requisition count grouped by status
type StatusCount struct {
	Status RequisitionStatus `json:"status"`
	Count  int64             `json:"count"`
}

// RequisitionStatistics summarises the requisition pipeline for a dashboard
type RequisitionStatistics struct {
	PropertyID      *uuid.UUID                  `json:"property_id,omitempty"`
	Total           int64                       `json:"total"`
	Open            int64                       `json:"open"`
	ByStatus        map[RequisitionStatus]int64 `json:"by_status"`
	AwaitingManager int64                       `json:"awaiting_manager"`
}
