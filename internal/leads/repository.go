package leads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists the full submission chain: company, contact, lead and
// initial interaction, atomically.
type Repository interface {
	CreateLead(ctx context.Context, params CreateLeadParams) (*CreateLeadResult, error)
}

// InMemoryRepository keeps the chain in process memory. Used by tests and
// local development without Postgres.
type InMemoryRepository struct {
	mu        sync.RWMutex
	companies map[string]*Company // keyed by CNPJ when present, else by id
	leads     map[string]*Lead
	reps      []SalesRepresentative
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		companies: make(map[string]*Company),
		leads:     make(map[string]*Lead),
	}
}

// AddRep registers an active sales representative.
func (r *InMemoryRepository) AddRep(rep SalesRepresentative) {
	r.mu.Lock()
	r.reps = append(r.reps, rep)
	r.mu.Unlock()
}

// CreateLead mirrors the transactional chain without a database.
func (r *InMemoryRepository) CreateLead(_ context.Context, params CreateLeadParams) (*CreateLeadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()

	company := r.upsertCompany(params, now)
	contactID := uuid.NewString()

	rep := DefaultRep(params.State)
	if len(r.reps) > 0 {
		rep = r.reps[0]
	}

	lead := &Lead{
		ID:                uuid.NewString(),
		CompanyID:         company.ID,
		ContactID:         contactID,
		SalesRepID:        rep.ID,
		ServiceOfInterest: params.ServiceOfInterest,
		Message:           params.Message,
		Status:            StatusNew,
		Source:            SourceContactForm,
		Priority:          DefaultPriority,
		CreatedAt:         now,
	}
	r.leads[lead.ID] = lead

	return &CreateLeadResult{
		LeadID:    lead.ID,
		CompanyID: company.ID,
		ContactID: contactID,
		Rep:       rep,
	}, nil
}

// GetLead returns a stored lead.
func (r *InMemoryRepository) GetLead(id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// LeadCount reports how many leads have been captured.
func (r *InMemoryRepository) LeadCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.leads)
}

// CompanyByCNPJ returns the deduplicated company for a CNPJ, if any.
func (r *InMemoryRepository) CompanyByCNPJ(cnpj string) (*Company, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.companies[cnpj]
	return c, ok
}

func (r *InMemoryRepository) upsertCompany(params CreateLeadParams, now time.Time) *Company {
	name, employees, state, city := companyDefaults(params)

	if params.CNPJ != "" {
		if existing, ok := r.companies[params.CNPJ]; ok {
			existing.Name = name
			existing.NumberOfEmployees = employees
			existing.State = state
			existing.City = city
			existing.UpdatedAt = now
			return existing
		}
	}

	company := &Company{
		ID:                uuid.NewString(),
		Name:              name,
		CNPJ:              params.CNPJ,
		NumberOfEmployees: employees,
		State:             state,
		City:              city,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	key := params.CNPJ
	if key == "" {
		key = company.ID
	}
	r.companies[key] = company
	return company
}

// companyDefaults fills the placeholder values used for person-only
// submissions that skipped the company fields.
func companyDefaults(params CreateLeadParams) (name, employees, state, city string) {
	name = params.Company
	if name == "" {
		name = "Pessoa Física"
	}
	employees = params.NumberOfEmployees
	if employees == "" {
		employees = "Não informado"
	}
	state = params.State
	if state == "" {
		state = "SP"
	}
	city = params.City
	if city == "" {
		city = "Não informada"
	}
	return name, employees, state, city
}
