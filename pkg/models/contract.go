package models

import "time"

// ContractStatus tracks the upload/parse lifecycle of a contract.
type ContractStatus string

const (
	ContractStatusUploaded ContractStatus = "uploaded"
	ContractStatusParsing  ContractStatus = "parsing"
	ContractStatusReady    ContractStatus = "ready"
	ContractStatusFailed   ContractStatus = "failed"
)

// ComplianceStatus is the contract-level compliance verdict.
type ComplianceStatus string

const (
	ComplianceUnknown      ComplianceStatus = "unknown"
	ComplianceCompliant    ComplianceStatus = "compliant"
	CompliancePartial      ComplianceStatus = "partial"
	ComplianceNonCompliant ComplianceStatus = "non-compliant"
)

// Party is one contracting party. Parties are always records with a name;
// anything joining party names for display or LLM context must read Name,
// never serialize the whole struct.
type Party struct {
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Contract is an uploaded legal document plus its extracted metadata.
// It owns its Clauses.
type Contract struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	ContractType     string           `json:"contract_type,omitempty"`
	Parties          []Party          `json:"parties"`
	Notes            string           `json:"notes,omitempty"`
	UploadedAt       time.Time        `json:"uploaded_at"`
	FileURI          string           `json:"file_uri"`
	Status           ContractStatus   `json:"status"`
	OverallRiskScore *float64         `json:"overall_risk_score,omitempty"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
}

// CreateContractRequest contains fields for registering an uploaded contract.
type CreateContractRequest struct {
	Title        string  `json:"title"`
	ContractType string  `json:"contract_type,omitempty"`
	Parties      []Party `json:"parties,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	FileURI      string  `json:"file_uri"`
}

// UpdateContractRequest carries mutable contract fields. Nil pointers are left
// unchanged.
type UpdateContractRequest struct {
	Title            *string
	ContractType     *string
	Parties          []Party
	Status           *ContractStatus
	OverallRiskScore *float64
	ComplianceStatus *ComplianceStatus
}

// ContractFilters contains filtering options for contract search.
type ContractFilters struct {
	Query        string `json:"query,omitempty"`
	ContractType string `json:"contract_type,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

// PartyNames extracts the Name field from each party. This is the only
// supported way to turn parties into a displayable list.
func PartyNames(parties []Party) []string {
	names := make([]string, 0, len(parties))
	for _, p := range parties {
		names = append(names, p.Name)
	}
	return names
}
