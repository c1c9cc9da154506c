package settlement

import "time"

// UpdateSettlementRequest is the body of PATCH /settlements/{id}. The only
// supported change is status: "paid".
type UpdateSettlementRequest struct {
	Status string `json:"status"`
}

// SettlementResponse is one transfer instruction as returned to clients
type SettlementResponse struct {
	ID             string    `json:"id"`
	BatchID        string    `json:"batch_id"`
	GroupID        string    `json:"group_id"`
	FromMembership string    `json:"from_membership"`
	ToMembership   string    `json:"to_membership"`
	AmountCents    int64     `json:"amount_cents"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// BatchResponse is a settlement batch as returned to clients. Settlements
// keep the persisted order.
type BatchResponse struct {
	ID               string               `json:"id"`
	GroupID          string               `json:"group_id"`
	Status           Status               `json:"status"`
	TotalSettlements int                  `json:"total_settlements"`
	Version          int                  `json:"version"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	VoidedReason     *string              `json:"voided_reason,omitempty"`
	Settlements      []SettlementResponse `json:"settlements"`
}

// ToResponse converts a Settlement to its response DTO
func (s *Settlement) ToResponse() SettlementResponse {
	return SettlementResponse{
		ID:             s.ID.String(),
		BatchID:        s.BatchID.String(),
		GroupID:        s.GroupID.String(),
		FromMembership: s.FromMembership.String(),
		ToMembership:   s.ToMembership.String(),
		AmountCents:    s.AmountCents,
		Status:         s.Status,
		CreatedAt:      s.CreatedAt,
	}
}

// ToResponse converts a Batch to its response DTO
func (b *Batch) ToResponse() BatchResponse {
	settlements := make([]SettlementResponse, 0, len(b.Settlements))
	for _, s := range b.Settlements {
		settlements = append(settlements, s.ToResponse())
	}

	return BatchResponse{
		ID:               b.ID.String(),
		GroupID:          b.GroupID.String(),
		Status:           b.Status,
		TotalSettlements: b.TotalSettlements,
		Version:          b.Version,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
		VoidedReason:     b.VoidedReason,
		Settlements:      settlements,
	}
}
