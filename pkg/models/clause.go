package models

// Clause is one categorized section of a contract. Deleted with its contract.
type Clause struct {
	ID         string   `json:"id"`
	ContractID string   `json:"contract_id"`
	Index      int      `json:"index"`
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	RiskScore  *float64 `json:"risk_score,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}

// CreateClauseRequest contains fields for saving one extracted clause.
type CreateClauseRequest struct {
	ContractID string   `json:"contract_id"`
	Index      int      `json:"index"`
	Type       string   `json:"type"`
	Text       string   `json:"text"`
	RiskScore  *float64 `json:"risk_score,omitempty"`
	Notes      string   `json:"notes,omitempty"`
}
