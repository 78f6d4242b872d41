package pgsql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxVATRepository struct {
	BaseRepository
}

func newPgxVATRepository(pool *pgxpool.Pool) *PgxVATRepository {
	return &PgxVATRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.VATRepositoryFacade = (*PgxVATRepository)(nil)

const vatColumns = `calculation_id, tenant_id, year, quarter, period_start, period_end, sales_vat, purchase_vat, net_vat,
	status, lines, calculated_at, calculated_by, submitted_at, submitted_by`

func scanCalculation(row scanner) (domain.VATCalculation, error) {
	var (
		c           domain.VATCalculation
		status      string
		lines       []byte
		submittedAt sql.NullTime
		submittedBy sql.NullString
	)
	err := row.Scan(&c.CalculationID, &c.TenantID, &c.Year, &c.Quarter, &c.PeriodStart, &c.PeriodEnd,
		&c.SalesVAT, &c.PurchaseVAT, &c.NetVAT, &status, &lines, &c.CalculatedAt, &c.CalculatedBy, &submittedAt, &submittedBy)
	if err != nil {
		return c, err
	}
	c.Status = domain.VATStatus(status)
	if err := json.Unmarshal(lines, &c.Lines); err != nil {
		return c, fmt.Errorf("decode VAT lines of %s: %w", c.CalculationID, err)
	}
	if submittedAt.Valid {
		c.SubmittedAt = &submittedAt.Time
	}
	c.SubmittedBy = submittedBy.String
	return c, nil
}

func (r *PgxVATRepository) FindCalculationByID(ctx context.Context, tenantID, calculationID string) (*domain.VATCalculation, error) {
	query := `SELECT ` + vatColumns + ` FROM vat_calculations WHERE tenant_id = $1 AND calculation_id = $2;`
	c, err := scanCalculation(r.db(ctx).QueryRow(ctx, query, tenantID, calculationID))
	if err != nil {
		return nil, mapPgError(err, "VAT calculation "+calculationID)
	}
	return &c, nil
}

func (r *PgxVATRepository) FindCalculationByQuarter(ctx context.Context, tenantID string, year, quarter int) (*domain.VATCalculation, error) {
	query := `SELECT ` + vatColumns + ` FROM vat_calculations WHERE tenant_id = $1 AND year = $2 AND quarter = $3;`
	c, err := scanCalculation(r.db(ctx).QueryRow(ctx, query, tenantID, year, quarter))
	if err != nil {
		return nil, mapPgError(err, fmt.Sprintf("VAT calculation %d Q%d", year, quarter))
	}
	return &c, nil
}

func (r *PgxVATRepository) ListCalculations(ctx context.Context, tenantID string, year int) ([]domain.VATCalculation, error) {
	query := `SELECT ` + vatColumns + ` FROM vat_calculations WHERE tenant_id = $1 AND year = $2 ORDER BY quarter;`
	rows, err := r.db(ctx).Query(ctx, query, tenantID, year)
	if err != nil {
		return nil, mapPgError(err, "list VAT calculations")
	}
	defer rows.Close()

	var out []domain.VATCalculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, mapPgError(err, "scan VAT calculation")
		}
		out = append(out, c)
	}
	return out, mapPgError(rows.Err(), "iterate VAT calculations")
}

// SaveCalculation upserts on the quarter. The WHERE clause of the update leaves a submitted row untouched.
func (r *PgxVATRepository) SaveCalculation(ctx context.Context, calc domain.VATCalculation) error {
	lines, err := json.Marshal(calc.Lines)
	if err != nil {
		return fmt.Errorf("encode VAT lines: %w", err)
	}
	query := `
		INSERT INTO vat_calculations (` + vatColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NULL, NULL)
		ON CONFLICT (tenant_id, year, quarter) DO UPDATE
		SET sales_vat = EXCLUDED.sales_vat,
		    purchase_vat = EXCLUDED.purchase_vat,
		    net_vat = EXCLUDED.net_vat,
		    lines = EXCLUDED.lines,
		    calculated_at = EXCLUDED.calculated_at,
		    calculated_by = EXCLUDED.calculated_by
		WHERE vat_calculations.status = 'CALCULATED';
	`
	tag, err := r.db(ctx).Exec(ctx, query, calc.CalculationID, calc.TenantID, calc.Year, calc.Quarter, calc.PeriodStart, calc.PeriodEnd,
		calc.SalesVAT, calc.PurchaseVAT, calc.NetVAT, string(calc.Status), lines, calc.CalculatedAt, calc.CalculatedBy)
	if err != nil {
		return mapPgError(err, "save VAT calculation")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %d Q%d", apperrors.ErrAlreadySubmitted, calc.Year, calc.Quarter)
	}
	return nil
}

func (r *PgxVATRepository) MarkSubmitted(ctx context.Context, calc domain.VATCalculation) error {
	query := `
		UPDATE vat_calculations SET status = 'SUBMITTED', submitted_at = $3, submitted_by = $4
		WHERE tenant_id = $1 AND calculation_id = $2 AND status = 'CALCULATED';
	`
	tag, err := r.db(ctx).Exec(ctx, query, calc.TenantID, calc.CalculationID, calc.SubmittedAt, calc.SubmittedBy)
	if err != nil {
		return mapPgError(err, "submit VAT calculation")
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.FindCalculationByID(ctx, calc.TenantID, calc.CalculationID); err != nil {
			return err
		}
		return fmt.Errorf("%w: %s", apperrors.ErrAlreadySubmitted, calc.CalculationID)
	}
	return nil
}
