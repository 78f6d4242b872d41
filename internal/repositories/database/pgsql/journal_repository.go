package pgsql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Fattieportal/boekhouding-saas/internal/apperrors"
	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	portsrepo "github.com/Fattieportal/boekhouding-saas/internal/core/ports/repositories"
	"github.com/Fattieportal/boekhouding-saas/internal/models"
	"github.com/Fattieportal/boekhouding-saas/internal/utils/mapping"
	"github.com/Fattieportal/boekhouding-saas/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxJournalRepository struct {
	BaseRepository
	ledgerReader
}

// newPgxJournalRepository creates a new repository for journals, entries and the ledger.
func newPgxJournalRepository(pool *pgxpool.Pool) *PgxJournalRepository {
	base := BaseRepository{Pool: pool}
	return &PgxJournalRepository{BaseRepository: base, ledgerReader: ledgerReader{BaseRepository: base}}
}

var _ portsrepo.JournalRepositoryFacade = (*PgxJournalRepository)(nil)

// --- Journals ---

const journalColumns = `journal_id, tenant_id, code, name, journal_type, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanJournal(row scanner) (models.Journal, error) {
	var m models.Journal
	err := row.Scan(&m.JournalID, &m.TenantID, &m.Code, &m.Name, &m.JournalType, &m.IsActive,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
	return m, err
}

func (r *PgxJournalRepository) SaveJournal(ctx context.Context, journal domain.Journal) error {
	m := mapping.ToModelJournal(journal)
	query := `INSERT INTO journals (` + journalColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
	_, err := r.db(ctx).Exec(ctx, query, m.JournalID, m.TenantID, m.Code, m.Name, m.JournalType, m.IsActive,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "save journal "+m.Code)
	}
	return nil
}

func (r *PgxJournalRepository) UpdateJournal(ctx context.Context, journal domain.Journal) error {
	m := mapping.ToModelJournal(journal)
	query := `
		UPDATE journals SET name = $3, is_active = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND journal_id = $2;
	`
	tag, err := r.db(ctx).Exec(ctx, query, m.TenantID, m.JournalID, m.Name, m.IsActive, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "update journal")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s", apperrors.ErrNotFound, journal.JournalID)
	}
	return nil
}

func (r *PgxJournalRepository) FindJournalByID(ctx context.Context, tenantID, journalID string) (*domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE tenant_id = $1 AND journal_id = $2;`
	m, err := scanJournal(r.db(ctx).QueryRow(ctx, query, tenantID, journalID))
	if err != nil {
		return nil, mapPgError(err, "journal "+journalID)
	}
	j := mapping.ToDomainJournal(m)
	return &j, nil
}

func (r *PgxJournalRepository) FindJournalByType(ctx context.Context, tenantID string, journalType domain.JournalType) (*domain.Journal, error) {
	query := `
		SELECT ` + journalColumns + ` FROM journals
		WHERE tenant_id = $1 AND journal_type = $2 AND is_active
		ORDER BY code LIMIT 1;
	`
	m, err := scanJournal(r.db(ctx).QueryRow(ctx, query, tenantID, string(journalType)))
	if err != nil {
		return nil, mapPgError(err, string(journalType)+" journal")
	}
	j := mapping.ToDomainJournal(m)
	return &j, nil
}

func (r *PgxJournalRepository) ListJournals(ctx context.Context, tenantID string) ([]domain.Journal, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE tenant_id = $1 ORDER BY code;`
	rows, err := r.db(ctx).Query(ctx, query, tenantID)
	if err != nil {
		return nil, mapPgError(err, "list journals")
	}
	defer rows.Close()

	var journals []domain.Journal
	for rows.Next() {
		m, err := scanJournal(rows)
		if err != nil {
			return nil, mapPgError(err, "scan journal")
		}
		journals = append(journals, mapping.ToDomainJournal(m))
	}
	return journals, mapPgError(rows.Err(), "iterate journals")
}

// --- Entries ---

const entryColumns = `entry_id, tenant_id, journal_id, entry_date, reference, description, status, kind,
	posted_at, posted_by, reversal_of, created_at, created_by, last_updated_at, last_updated_by`

func scanEntry(row scanner) (models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(&m.EntryID, &m.TenantID, &m.JournalID, &m.EntryDate, &m.Reference, &m.Description, &m.Status, &m.Kind,
		&m.PostedAt, &m.PostedBy, &m.ReversalOf, &m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy)
	return m, err
}

// queryEntries runs an entry query and attaches the lines of every row.
func (r *PgxJournalRepository) queryEntries(ctx context.Context, query string, args ...any) ([]domain.JournalEntry, error) {
	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err, "query entries")
	}
	var headers []models.JournalEntry
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, mapPgError(err, "scan entry")
		}
		headers = append(headers, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapPgError(err, "iterate entries")
	}
	if len(headers) == 0 {
		return nil, nil
	}

	ids := make([]string, len(headers))
	for i, h := range headers {
		ids[i] = h.EntryID
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.JournalEntry, len(headers))
	for i, h := range headers {
		entries[i] = mapping.ToDomainJournalEntry(h, lines[h.EntryID])
	}
	return entries, nil
}

func (r *PgxJournalRepository) loadLines(ctx context.Context, entryIDs []string) (map[string][]models.JournalLine, error) {
	query := `
		SELECT line_id, entry_id, account_id, description, debit, credit, vat_rate, position
		FROM journal_lines WHERE entry_id = ANY($1)
		ORDER BY entry_id, position;
	`
	rows, err := r.db(ctx).Query(ctx, query, entryIDs)
	if err != nil {
		return nil, mapPgError(err, "load lines")
	}
	defer rows.Close()

	lines := make(map[string][]models.JournalLine, len(entryIDs))
	for rows.Next() {
		var l models.JournalLine
		if err := rows.Scan(&l.LineID, &l.EntryID, &l.AccountID, &l.Description, &l.Debit, &l.Credit, &l.VATRate, &l.Position); err != nil {
			return nil, mapPgError(err, "scan line")
		}
		lines[l.EntryID] = append(lines[l.EntryID], l)
	}
	return lines, mapPgError(rows.Err(), "iterate lines")
}

func (r *PgxJournalRepository) findOneEntry(ctx context.Context, what, where string, args ...any) (*domain.JournalEntry, error) {
	entries, err := r.queryEntries(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE `+where+` LIMIT 1;`, args...)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, what)
	}
	return &entries[0], nil
}

func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	return r.findOneEntry(ctx, "entry "+entryID, `tenant_id = $1 AND entry_id = $2`, tenantID, entryID)
}

func (r *PgxJournalRepository) FindReversalOf(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error) {
	return r.findOneEntry(ctx, "reversal of "+entryID, `tenant_id = $1 AND reversal_of = $2`, tenantID, entryID)
}

// ListEntries pages by (entry_date, created_at, entry_id) descending. One extra row is fetched
// to decide whether a next token is needed.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, tenantID string, filter portsrepo.EntryFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	conds := []string{"tenant_id = $1"}
	args := []any{tenantID}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(string(*filter.Status)))
	}
	if filter.JournalID != nil {
		conds = append(conds, "journal_id = "+arg(*filter.JournalID))
	}
	if filter.From != nil {
		conds = append(conds, "entry_date >= "+arg(*filter.From)+"::date")
	}
	if filter.To != nil {
		conds = append(conds, "entry_date <= "+arg(*filter.To)+"::date")
	}
	if nextToken != nil && *nextToken != "" {
		cursor, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, err
		}
		conds = append(conds, fmt.Sprintf("(entry_date, created_at, entry_id) < (%s::date, %s::timestamptz, %s)",
			arg(cursor.EntryDate), arg(cursor.CreatedAt), arg(cursor.EntryID)))
	}
	query := `SELECT ` + entryColumns + ` FROM journal_entries WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY entry_date DESC, created_at DESC, entry_id DESC LIMIT ` + arg(limit+1) + `;`

	entries, err := r.queryEntries(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	if len(entries) <= limit {
		return entries, nil, nil
	}
	entries = entries[:limit]
	last := entries[limit-1]
	token := pagination.EncodeToken(pagination.EntryCursor{EntryDate: last.EntryDate, CreatedAt: last.CreatedAt, EntryID: last.EntryID})
	return entries, &token, nil
}

func (r *PgxJournalRepository) CountDrafts(ctx context.Context, tenantID string, from, to time.Time) (int, error) {
	query := `
		SELECT count(*) FROM journal_entries
		WHERE tenant_id = $1 AND status = 'DRAFT' AND entry_date BETWEEN $2::date AND $3::date;
	`
	var n int
	if err := r.db(ctx).QueryRow(ctx, query, tenantID, from, to).Scan(&n); err != nil {
		return 0, mapPgError(err, "count drafts")
	}
	return n, nil
}

func (r *PgxJournalRepository) FindEntriesByKind(ctx context.Context, tenantID string, kind domain.EntryKind, from, to time.Time) ([]domain.JournalEntry, error) {
	query := `
		SELECT ` + entryColumns + ` FROM journal_entries
		WHERE tenant_id = $1 AND kind = $2 AND entry_date BETWEEN $3::date AND $4::date
		ORDER BY entry_date, created_at, entry_id;
	`
	return r.queryEntries(ctx, query, tenantID, string(kind), from, to)
}

// --- Entry writes ---

func (r *PgxJournalRepository) insertLines(ctx context.Context, q querier, entry domain.JournalEntry) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, description, debit, credit, vat_rate, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, line := range entry.Lines {
		l := mapping.ToModelJournalLine(entry.EntryID, line)
		batch.Queue(query, l.LineID, l.EntryID, l.AccountID, l.Description, l.Debit, l.Credit, l.VATRate, l.Position)
	}
	if err := q.SendBatch(ctx, batch).Close(); err != nil {
		return mapPgError(err, "insert lines of entry "+entry.EntryID)
	}
	return nil
}

// SaveEntry inserts the header and its lines in one transaction.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	return r.withinTx(ctx, func(ctx context.Context) error {
		m := mapping.ToModelJournalEntry(entry)
		q := r.db(ctx)
		query := `INSERT INTO journal_entries (` + entryColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`
		_, err := q.Exec(ctx, query, m.EntryID, m.TenantID, m.JournalID, m.EntryDate, m.Reference, m.Description, m.Status, m.Kind,
			m.PostedAt, m.PostedBy, m.ReversalOf, m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy)
		if err != nil {
			return mapPgError(err, "save entry "+m.EntryID)
		}
		return r.insertLines(ctx, q, entry)
	})
}

// statusGuard explains why a guarded update touched no row.
func (r *PgxJournalRepository) statusGuard(ctx context.Context, tenantID, entryID string) error {
	var status string
	err := r.db(ctx).QueryRow(ctx, `SELECT status FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2;`, tenantID, entryID).Scan(&status)
	if err != nil {
		return mapPgError(err, "entry "+entryID)
	}
	return fmt.Errorf("%w: entry %s is %s", apperrors.ErrConflict, entryID, status)
}

func (r *PgxJournalRepository) ReplaceDraft(ctx context.Context, entry domain.JournalEntry) error {
	return r.withinTx(ctx, func(ctx context.Context) error {
		m := mapping.ToModelJournalEntry(entry)
		q := r.db(ctx)
		query := `
			UPDATE journal_entries
			SET journal_id = $3, entry_date = $4, reference = $5, description = $6, last_updated_at = $7, last_updated_by = $8
			WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
		`
		tag, err := q.Exec(ctx, query, m.TenantID, m.EntryID, m.JournalID, m.EntryDate, m.Reference, m.Description, m.LastUpdatedAt, m.LastUpdatedBy)
		if err != nil {
			return mapPgError(err, "replace draft "+m.EntryID)
		}
		if tag.RowsAffected() == 0 {
			return r.statusGuard(ctx, m.TenantID, m.EntryID)
		}
		if _, err := q.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, m.EntryID); err != nil {
			return mapPgError(err, "clear lines of "+m.EntryID)
		}
		return r.insertLines(ctx, q, entry)
	})
}

func (r *PgxJournalRepository) MarkPosted(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)
	query := `
		UPDATE journal_entries
		SET status = 'POSTED', posted_at = $3, posted_by = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	tag, err := r.db(ctx).Exec(ctx, query, m.TenantID, m.EntryID, m.PostedAt, m.PostedBy, m.LastUpdatedAt, m.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "post entry "+m.EntryID)
	}
	if tag.RowsAffected() == 0 {
		return r.statusGuard(ctx, m.TenantID, m.EntryID)
	}
	return nil
}

func (r *PgxJournalRepository) MarkReversed(ctx context.Context, entry domain.JournalEntry) error {
	query := `
		UPDATE journal_entries
		SET status = 'REVERSED', last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'POSTED';
	`
	tag, err := r.db(ctx).Exec(ctx, query, entry.TenantID, entry.EntryID, entry.LastUpdatedAt, entry.LastUpdatedBy)
	if err != nil {
		return mapPgError(err, "reverse entry "+entry.EntryID)
	}
	if tag.RowsAffected() == 0 {
		return r.statusGuard(ctx, entry.TenantID, entry.EntryID)
	}
	return nil
}

// DeleteDraft removes a draft; its lines go with it through ON DELETE CASCADE.
func (r *PgxJournalRepository) DeleteDraft(ctx context.Context, tenantID, entryID string) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';`, tenantID, entryID)
	if err != nil {
		return mapPgError(err, "delete draft "+entryID)
	}
	if tag.RowsAffected() == 0 {
		return r.statusGuard(ctx, tenantID, entryID)
	}
	return nil
}
