package leads

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alltechdigital/leads-api/pkg/logging"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Outbox notification kinds written alongside a lead when outbox delivery
// is enabled.
const (
	OutboxKindSalesAlert         = "sales_alert"
	OutboxKindClientConfirmation = "client_confirmation"
)

// NotificationPayload is the outbox row body, everything the deliverer needs
// to render and send an email without re-reading the lead chain.
type NotificationPayload struct {
	LeadID     string              `json:"lead_id"`
	Submission CreateLeadParams    `json:"submission"`
	Rep        SalesRepresentative `json:"rep"`
}

// PostgresRepository persists the submission chain in one transaction.
// With outbox enabled it also enqueues the two notification emails in the
// same transaction, so a committed lead always has its pending emails.
type PostgresRepository struct {
	db     db
	logger *logging.Logger
	outbox bool
}

// NewPostgresRepository initializes a repository backed by pgxpool.
func NewPostgresRepository(db db, logger *logging.Logger, outbox bool) *PostgresRepository {
	if db == nil {
		panic("leads: database required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, logger: logger, outbox: outbox}
}

// CreateLead runs the full chain atomically: company upsert, contact upsert,
// representative assignment, lead insert and the initial interaction. Any
// failure rolls the whole chain back, the interaction included.
func (r *PostgresRepository) CreateLead(ctx context.Context, params CreateLeadParams) (*CreateLeadResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback(ctx)

	companyID, err := r.upsertCompany(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	contactID, err := r.upsertContact(ctx, tx, companyID, params)
	if err != nil {
		return nil, err
	}

	rep, err := r.assignRep(ctx, tx, params.State)
	if err != nil {
		return nil, err
	}

	service := params.ServiceOfInterest
	if service == "" {
		service = "Não especificado"
	}
	var leadID string
	err = tx.QueryRow(ctx, `
		INSERT INTO leads (company_id, contact_id, sales_rep_id, service_of_interest, message, status, source, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, companyID, contactID, rep.ID, service, params.Message, StatusNew, SourceContactForm, DefaultPriority).Scan(&leadID)
	if err != nil {
		return nil, fmt.Errorf("leads: insert lead: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO interactions (lead_id, sales_rep_id, interaction_type, subject, description, interaction_date)
		VALUES ($1, $2, $3, 'Novo contato via site', 'Lead gerado através do formulário de contato do site', CURRENT_TIMESTAMP)
	`, leadID, rep.ID, InteractionFormSubmission)
	if err != nil {
		return nil, fmt.Errorf("leads: insert interaction: %w", err)
	}

	if r.outbox {
		if err := r.enqueueNotifications(ctx, tx, leadID, params, rep); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("leads: commit tx: %w", err)
	}

	r.logger.Info("lead created",
		"lead_id", leadID,
		"company_id", companyID,
		"sales_rep", rep.Name,
		"region", rep.Region,
	)
	return &CreateLeadResult{
		LeadID:    leadID,
		CompanyID: companyID,
		ContactID: contactID,
		Rep:       rep,
	}, nil
}

// upsertCompany deduplicates by CNPJ with a single ON CONFLICT statement so
// two concurrent first submissions of one CNPJ cannot both insert. Without a
// CNPJ every submission gets its own row.
func (r *PostgresRepository) upsertCompany(ctx context.Context, tx pgx.Tx, params CreateLeadParams) (string, error) {
	name, employees, state, city := companyDefaults(params)

	var id string
	var err error
	if params.CNPJ != "" {
		err = tx.QueryRow(ctx, `
			INSERT INTO companies (name, cnpj, number_of_employees, state, city)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (cnpj) DO UPDATE
			SET name = EXCLUDED.name,
			    number_of_employees = EXCLUDED.number_of_employees,
			    state = EXCLUDED.state,
			    city = EXCLUDED.city,
			    updated_at = CURRENT_TIMESTAMP
			RETURNING id
		`, name, params.CNPJ, employees, state, city).Scan(&id)
	} else {
		err = tx.QueryRow(ctx, `
			INSERT INTO companies (name, cnpj, number_of_employees, state, city)
			VALUES ($1, NULL, $2, $3, $4)
			RETURNING id
		`, name, employees, state, city).Scan(&id)
	}
	if err != nil {
		return "", fmt.Errorf("leads: upsert company: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) upsertContact(ctx context.Context, tx pgx.Tx, companyID string, params CreateLeadParams) (string, error) {
	var phone any
	if params.Phone != "" {
		phone = params.Phone
	}

	var id string
	err := tx.QueryRow(ctx, `SELECT id FROM contacts WHERE company_id = $1 AND email = $2`, companyID, params.Email).Scan(&id)
	switch {
	case err == nil:
		if _, err := tx.Exec(ctx, `
			UPDATE contacts SET name = $1, phone = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3
		`, params.Name, phone, id); err != nil {
			return "", fmt.Errorf("leads: update contact: %w", err)
		}
		return id, nil
	case err == pgx.ErrNoRows:
		err = tx.QueryRow(ctx, `
			INSERT INTO contacts (company_id, name, email, phone, is_primary)
			VALUES ($1, $2, $3, $4, TRUE)
			RETURNING id
		`, companyID, params.Name, params.Email, phone).Scan(&id)
		if err != nil {
			return "", fmt.Errorf("leads: insert contact: %w", err)
		}
		return id, nil
	default:
		return "", fmt.Errorf("leads: select contact: %w", err)
	}
}

// assignRep picks the first active representative regardless of the
// submitter's state. Region routing only applies to the fallback default.
func (r *PostgresRepository) assignRep(ctx context.Context, tx pgx.Tx, state string) (SalesRepresentative, error) {
	var rep SalesRepresentative
	err := tx.QueryRow(ctx, `
		SELECT id, name, email, region FROM sales_representatives WHERE is_active = TRUE LIMIT 1
	`).Scan(&rep.ID, &rep.Name, &rep.Email, &rep.Region)
	switch {
	case err == nil:
		return rep, nil
	case err == pgx.ErrNoRows:
		r.logger.Warn("no active sales representative, using default")
		return DefaultRep(state), nil
	default:
		return SalesRepresentative{}, fmt.Errorf("leads: select sales rep: %w", err)
	}
}

func (r *PostgresRepository) enqueueNotifications(ctx context.Context, tx pgx.Tx, leadID string, params CreateLeadParams, rep SalesRepresentative) error {
	payload, err := json.Marshal(NotificationPayload{LeadID: leadID, Submission: params, Rep: rep})
	if err != nil {
		return fmt.Errorf("leads: marshal notification payload: %w", err)
	}

	rows := []struct{ kind, recipient string }{
		{OutboxKindSalesAlert, rep.Email},
		{OutboxKindClientConfirmation, params.Email},
	}
	for _, row := range rows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO notification_outbox (lead_id, kind, recipient, payload)
			VALUES ($1, $2, $3, $4)
		`, leadID, row.kind, row.recipient, payload); err != nil {
			return fmt.Errorf("leads: enqueue %s: %w", row.kind, err)
		}
	}
	return nil
}
