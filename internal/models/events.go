package models

import (
	"time"

	"github.com/google/uuid"
)

// SupplierStatusEvent is the fact published whenever a workflow transition
// changes a supplier's status. Consumers (notifications, analytics) receive
// it as persistent JSON.
type SupplierStatusEvent struct {
	SupplierID uuid.UUID         `json:"supplier_id"`
	WorkflowID uuid.UUID         `json:"workflow_id"`
	OldStatus  SupplierStatus    `json:"old_status"`
	NewStatus  SupplierStatus    `json:"new_status"`
	Step       WorkflowStep      `json:"step"`
	Actor      string            `json:"actor"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
