package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/people-api/internal/domain"
	"github.com/phrazzld/people-api/internal/platform/logger"
	"github.com/phrazzld/people-api/internal/store"
)

// columns maps queryable fields onto table columns. Only names from this map
// are ever interpolated into SQL.
var columns = map[store.Field]string{
	store.FieldID:        "id",
	store.FieldFirstName: "first_name",
	store.FieldLastName:  "last_name",
}

// PersonStore implements store.PersonStore on SQLite.
type PersonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.PersonStore = (*PersonStore)(nil)

// NewPersonStore creates a store backed by db, which may be a *sql.DB or a
// *sql.Tx. If logger is nil, slog.Default() is used.
func NewPersonStore(db store.DBTX, logger *slog.Logger) *PersonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PersonStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_person_store")),
	}
}

// Create implements store.PersonStore.
func (s *PersonStore) Create(ctx context.Context, p *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		log.Warn("person validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO people (first_name, last_name) VALUES (?, ?) RETURNING id`,
		store.NullString(p.FirstName), store.NullString(p.LastName),
	).Scan(&id)
	if err != nil {
		log.Error("failed to create person", slog.String("error", err.Error()))
		return store.NewStoreError("person", "create", "insert failed", err)
	}
	p.ID = id

	log.Debug("person created", slog.Int64("person_id", id))
	return nil
}

// GetByID implements store.PersonStore.
func (s *PersonStore) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	p, err := scanPerson(s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM people WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("person not found", slog.Int64("person_id", id))
			return nil, store.ErrPersonNotFound
		}
		log.Error("failed to get person", slog.Int64("person_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "get", "select failed", err)
	}
	return p, nil
}

// Update implements store.PersonStore.
func (s *PersonStore) Update(ctx context.Context, p *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE people SET first_name = ?, last_name = ? WHERE id = ?`,
		store.NullString(p.FirstName), store.NullString(p.LastName), p.ID)
	if err != nil {
		log.Error("failed to update person", slog.Int64("person_id", p.ID), slog.String("error", err.Error()))
		return store.NewStoreError("person", "update", "update failed", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return err
	}

	log.Debug("person updated", slog.Int64("person_id", p.ID))
	return nil
}

// Patch implements store.PersonStore. The merge runs as a single UPDATE so
// concurrent patches of different fields never overwrite each other.
func (s *PersonStore) Patch(ctx context.Context, id int64, patch domain.PersonPatch) (*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	var sets []string
	var args []any
	if patch.FirstName.Set {
		sets = append(sets, "first_name = ?")
		args = append(args, store.NullString(patch.FirstName.Value))
	}
	if patch.LastName.Set {
		sets = append(sets, "last_name = ?")
		args = append(args, store.NullString(patch.LastName.Value))
	}
	args = append(args, id)

	query := `UPDATE people SET ` + strings.Join(sets, ", ") +
		` WHERE id = ? RETURNING id, first_name, last_name`

	p, err := scanPerson(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPersonNotFound
		}
		log.Error("failed to patch person", slog.Int64("person_id", id), slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "patch", "update failed", err)
	}

	log.Debug("person patched", slog.Int64("person_id", id))
	return p, nil
}

// Delete implements store.PersonStore.
func (s *PersonStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete person", slog.Int64("person_id", id), slog.String("error", err.Error()))
		return store.NewStoreError("person", "delete", "delete failed", err)
	}
	if err := checkRowsAffected(result); err != nil {
		return err
	}

	log.Debug("person deleted", slog.Int64("person_id", id))
	return nil
}

// DeleteAll implements store.PersonStore. AUTOINCREMENT keeps the sequence
// in sqlite_sequence, so identifiers are not reused afterwards.
func (s *PersonStore) DeleteAll(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM people`); err != nil {
		log.Error("failed to delete all people", slog.String("error", err.Error()))
		return store.NewStoreError("person", "delete_all", "delete failed", err)
	}

	log.Info("all people deleted")
	return nil
}

// List implements store.PersonStore.
func (s *PersonStore) List(ctx context.Context, opts store.ListOptions) ([]*domain.Person, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, err := orderClause(opts.Sort)
	if err != nil {
		return nil, 0, err
	}

	// LIMIT -1 is SQLite for no limit; OFFSET requires a LIMIT.
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	query := `SELECT id, first_name, last_name FROM people ` + orderBy + ` LIMIT ? OFFSET ?`

	// The count and the page come from one transaction so the total matches
	// the rows returned.
	var (
		people []*domain.Person
		total  int
	)
	err = store.ReadInTransaction(ctx, s.db, nil, func(ctx context.Context, q store.DBTX) error {
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&total); err != nil {
			log.Error("failed to count people", slog.String("error", err.Error()))
			return store.NewStoreError("person", "list", "count failed", err)
		}

		var err error
		people, err = queryPeople(ctx, q, query, limit, max(opts.Offset, 0))
		if err != nil {
			log.Error("failed to list people", slog.String("error", err.Error()))
			return store.NewStoreError("person", "list", "select failed", err)
		}
		return nil
	})
	if err != nil {
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return nil, 0, err
		}
		return nil, 0, store.NewStoreError("person", "list", "transaction failed", err)
	}
	return people, total, nil
}

// FindBy implements store.PersonStore.
func (s *PersonStore) FindBy(ctx context.Context, c store.Criteria) ([]*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	column, ok := columns[c.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", store.ErrInvalidQuery, c.Field)
	}

	query := `SELECT id, first_name, last_name FROM people WHERE ` + column
	var args []any
	if c.Value == nil {
		query += ` IS NULL`
	} else {
		query += ` = ?`
		args = append(args, *c.Value)
	}
	query += ` ORDER BY id ASC`

	people, err := s.query(ctx, query, args...)
	if err != nil {
		log.Error("failed to find people",
			slog.String("field", string(c.Field)),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "find", "select failed", err)
	}

	log.Debug("people found", slog.String("field", string(c.Field)), slog.Int("count", len(people)))
	return people, nil
}

func (s *PersonStore) query(ctx context.Context, query string, args ...any) ([]*domain.Person, error) {
	return queryPeople(ctx, s.db, query, args...)
}

func queryPeople(ctx context.Context, q store.DBTX, query string, args ...any) ([]*domain.Person, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	people := make([]*domain.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return people, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*domain.Person, error) {
	var (
		p           domain.Person
		first, last sql.NullString
	)
	if err := row.Scan(&p.ID, &first, &last); err != nil {
		return nil, err
	}
	p.FirstName = store.StringFromNull(first)
	p.LastName = store.StringFromNull(last)
	return &p, nil
}

// orderClause builds ORDER BY with nulls first ascending and last descending,
// ties broken by id.
func orderClause(by store.Sort) (string, error) {
	if by.Field == "" {
		return `ORDER BY id ASC`, nil
	}
	column, ok := columns[by.Field]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort field %q", store.ErrInvalidQuery, by.Field)
	}
	direction := "ASC NULLS FIRST"
	if by.Descending {
		direction = "DESC NULLS LAST"
	}
	return fmt.Sprintf(`ORDER BY %s %s, id ASC`, column, direction), nil
}

func checkRowsAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrPersonNotFound
	}
	return nil
}
