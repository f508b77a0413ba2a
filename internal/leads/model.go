package leads

import "time"

// Company is the organization behind a submission, deduplicated by CNPJ when
// one is provided. Submissions without CNPJ always create a fresh row.
type Company struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	CNPJ              string    `json:"cnpj,omitempty"`
	NumberOfEmployees string    `json:"number_of_employees"`
	State             string    `json:"state"`
	City              string    `json:"city"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Contact is a person at a company, unique per (company, email).
type Contact struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SalesRepresentative receives new leads.
type SalesRepresentative struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Region string `json:"region"`
}

// Lead is a qualified sales record created from a form submission.
type Lead struct {
	ID                string    `json:"id"`
	CompanyID         string    `json:"company_id"`
	ContactID         string    `json:"contact_id"`
	SalesRepID        string    `json:"sales_rep_id"`
	ServiceOfInterest string    `json:"service_of_interest"`
	Message           string    `json:"message"`
	Status            string    `json:"status"`
	Source            string    `json:"source"`
	Priority          int       `json:"priority"`
	CreatedAt         time.Time `json:"created_at"`
}

// Lead lifecycle and provenance constants.
const (
	StatusNew         = "new"
	SourceContactForm = "website_contact_form"
	DefaultPriority   = 2

	InteractionFormSubmission = "form_submission"
)

// CreateLeadParams carries a validated submission into the repository.
// Optional fields are empty strings.
type CreateLeadParams struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone,omitempty"`
	Company           string `json:"company,omitempty"`
	CNPJ              string `json:"cnpj,omitempty"`
	NumberOfEmployees string `json:"number_of_employees,omitempty"`
	State             string `json:"state,omitempty"`
	City              string `json:"city,omitempty"`
	ServiceOfInterest string `json:"service_of_interest"`
	Message           string `json:"message"`
}

// CreateLeadResult reports the created lead and its assigned representative.
type CreateLeadResult struct {
	LeadID    string
	CompanyID string
	ContactID string
	Rep       SalesRepresentative
}

// DefaultRep is the fallback representative used when no active one exists
// in the database. Its region follows the submitter's state.
func DefaultRep(state string) SalesRepresentative {
	return SalesRepresentative{
		ID:     "default-001",
		Name:   "João Rosa",
		Email:  "joao.rosa@alltechbr.solutions",
		Region: RegionForState(state),
	}
}

// RegionForState maps a state code to its sales region. States outside the
// covered regions fall back to the national desk.
func RegionForState(state string) string {
	switch state {
	case "SP", "RJ", "MG", "ES":
		return "Sudeste"
	case "RS", "SC", "PR":
		return "Sul"
	case "GO", "MT", "MS", "DF":
		return "Centro-Oeste"
	default:
		return "Nacional"
	}
}
