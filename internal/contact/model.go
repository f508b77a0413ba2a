package contact

// Submission is a contact form payload after normalization. Optional fields
// are empty strings rather than pointers, matching the form's wire shape.
type Submission struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	ServiceOfInterest string `json:"serviceOfInterest"`
	Phone             string `json:"phone,omitempty"`
	Company           string `json:"company,omitempty"`
	CNPJ              string `json:"cnpj,omitempty"`
	NumberOfEmployees string `json:"numberOfEmployees,omitempty"`
	State             string `json:"state,omitempty"`
	City              string `json:"city,omitempty"`
	Message           string `json:"message"`
}

// Services the form accepts. The frontend select offers exactly these labels.
var ValidServices = []string{
	"Migração para Microsoft 365",
	"Treinamentos Microsoft",
	"Consultoria em Cloud",
	"Automação de Processos",
	"Diagnóstico Gratuito",
	"Outros",
}

// Brazilian state codes.
var ValidStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO", "MA",
	"MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI", "RJ", "RN",
	"RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

// RepInfo identifies the sales representative assigned to a lead, echoed in
// the success response so the frontend can show who will reach out.
type RepInfo struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Region string `json:"region"`
}

// Response is the API envelope for the contact endpoints.
type Response struct {
	Success             bool     `json:"success"`
	Message             string   `json:"message"`
	SalesRepresentative *RepInfo `json:"salesRepresentative,omitempty"`
	Errors              []string `json:"errors,omitempty"`
}
