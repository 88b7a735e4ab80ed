package postgres

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

// listTxOptions gives the count and the page of List one snapshot.
var listTxOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

// PostgresPersonStore implements the store.PersonStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPersonStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.PersonStore = (*PostgresPersonStore)(nil)

// NewPostgresPersonStore creates a new PostgreSQL implementation of the PersonStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPersonStore(db store.DBTX, logger *slog.Logger) *PostgresPersonStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPersonStore{
		db:     db,
		logger: logger.With(slog.String("component", "person_store")),
	}
}

// WithTx returns a store that runs its statements inside tx.
func (s *PostgresPersonStore) WithTx(tx *sql.Tx) *PostgresPersonStore {
	return &PostgresPersonStore{db: tx, logger: s.logger}
}

// Create implements store.PersonStore.Create.
// The identity column assigns the ID, which is written back into p.
func (s *PostgresPersonStore) Create(ctx context.Context, p *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		log.Warn("person validation failed during create", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO people (first_name, last_name) VALUES ($1, $2) RETURNING id`,
		store.NullString(p.FirstName), store.NullString(p.LastName),
	).Scan(&id)
	if err != nil {
		log.Error("failed to create person", slog.String("error", err.Error()))
		return store.NewStoreError("person", "create", "insert failed", MapError(err))
	}
	p.ID = id

	log.Info("person created successfully", slog.Int64("person_id", id))
	return nil
}

// GetByID implements store.PersonStore.GetByID.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *PostgresPersonStore) GetByID(ctx context.Context, id int64) (*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving person by ID", slog.Int64("person_id", id))

	p, err := scanPerson(s.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name FROM people WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("person not found", slog.Int64("person_id", id))
			return nil, store.ErrPersonNotFound
		}
		log.Error("failed to get person by ID",
			slog.Int64("person_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "get", "select failed", MapError(err))
	}
	return p, nil
}

// Update implements store.PersonStore.Update.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *PostgresPersonStore) Update(ctx context.Context, p *domain.Person) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := p.Validate(); err != nil {
		log.Warn("person validation failed during update", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE people SET first_name = $1, last_name = $2 WHERE id = $3`,
		store.NullString(p.FirstName), store.NullString(p.LastName), p.ID)
	if err != nil {
		log.Error("failed to update person",
			slog.Int64("person_id", p.ID),
			slog.String("error", err.Error()))
		return store.NewStoreError("person", "update", "update failed", MapError(err))
	}
	if err := CheckRowsAffected(result); err != nil {
		log.Debug("person not found for update", slog.Int64("person_id", p.ID))
		return err
	}

	log.Info("person updated successfully", slog.Int64("person_id", p.ID))
	return nil
}

// Patch implements store.PersonStore.Patch.
// Only supplied columns appear in the UPDATE, so concurrent patches of
// different fields both survive.
func (s *PostgresPersonStore) Patch(
	ctx context.Context,
	id int64,
	patch domain.PersonPatch,
) (*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := patch.Validate(); err != nil {
		log.Warn("person validation failed during patch", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if patch.IsEmpty() {
		return s.GetByID(ctx, id)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value *string) {
		args = append(args, store.NullString(value))
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.FirstName.Set {
		set("first_name", patch.FirstName.Value)
	}
	if patch.LastName.Set {
		set("last_name", patch.LastName.Value)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE people SET %s WHERE id = $%d RETURNING id, first_name, last_name`,
		strings.Join(sets, ", "), len(args))

	p, err := scanPerson(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("person not found for patch", slog.Int64("person_id", id))
			return nil, store.ErrPersonNotFound
		}
		log.Error("failed to patch person",
			slog.Int64("person_id", id),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "patch", "update failed", MapError(err))
	}

	log.Info("person patched successfully", slog.Int64("person_id", id))
	return p, nil
}

// Delete implements store.PersonStore.Delete.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *PostgresPersonStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM people WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete person",
			slog.Int64("person_id", id),
			slog.String("error", err.Error()))
		return store.NewStoreError("person", "delete", "delete failed", MapError(err))
	}
	if err := CheckRowsAffected(result); err != nil {
		log.Debug("person not found for deletion", slog.Int64("person_id", id))
		return err
	}

	log.Info("person deleted successfully", slog.Int64("person_id", id))
	return nil
}

// DeleteAll implements store.PersonStore.DeleteAll.
// The identity sequence is left alone so IDs are never reused.
func (s *PostgresPersonStore) DeleteAll(ctx context.Context) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM people`); err != nil {
		log.Error("failed to delete all people", slog.String("error", err.Error()))
		return store.NewStoreError("person", "delete_all", "delete failed", MapError(err))
	}

	log.Info("all people deleted")
	return nil
}

// List implements store.PersonStore.List.
func (s *PostgresPersonStore) List(
	ctx context.Context,
	opts store.ListOptions,
) ([]*domain.Person, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	orderBy, err := orderClause(opts.Sort)
	if err != nil {
		return nil, 0, err
	}

	// A NULL limit means no limit.
	var limit sql.NullInt64
	if opts.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(opts.Limit), Valid: true}
	}
	query := `SELECT id, first_name, last_name FROM people ` + orderBy + ` LIMIT $1 OFFSET $2`

	var (
		people []*domain.Person
		total  int
	)
	err = store.ReadInTransaction(ctx, s.db, listTxOptions, func(ctx context.Context, q store.DBTX) error {
		if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM people`).Scan(&total); err != nil {
			log.Error("failed to count people", slog.String("error", err.Error()))
			return store.NewStoreError("person", "list", "count failed", MapError(err))
		}

		var err error
		people, err = queryPeople(ctx, q, query, limit, max(opts.Offset, 0))
		if err != nil {
			log.Error("failed to list people", slog.String("error", err.Error()))
			return store.NewStoreError("person", "list", "select failed", MapError(err))
		}
		return nil
	})
	if err != nil {
		var storeErr *store.StoreError
		if errors.As(err, &storeErr) {
			return nil, 0, err
		}
		return nil, 0, store.NewStoreError("person", "list", "transaction failed", MapError(err))
	}

	log.Debug("people listed", slog.Int("count", len(people)), slog.Int("total", total))
	return people, total, nil
}

// FindBy implements store.PersonStore.FindBy.
func (s *PostgresPersonStore) FindBy(ctx context.Context, c store.Criteria) ([]*domain.Person, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	column, ok := columns[c.Field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown field %q", store.ErrInvalidQuery, c.Field)
	}

	var (
		where string
		args  []any
	)
	switch {
	case c.Value == nil:
		where = column + ` IS NULL`
	case c.Field == store.FieldID:
		// Compare as text so a non-numeric value simply matches nothing.
		where = `id::text = $1`
		args = append(args, *c.Value)
	default:
		where = column + ` = $1`
		args = append(args, *c.Value)
	}

	people, err := s.query(ctx,
		`SELECT id, first_name, last_name FROM people WHERE `+where+` ORDER BY id ASC`, args...)
	if err != nil {
		log.Error("failed to find people",
			slog.String("field", string(c.Field)),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("person", "find", "select failed", MapError(err))
	}

	log.Debug("people found", slog.String("field", string(c.Field)), slog.Int("count", len(people)))
	return people, nil
}

func (s *PostgresPersonStore) query(ctx context.Context, query string, args ...any) ([]*domain.Person, error) {
	return queryPeople(ctx, s.db, query, args...)
}

func queryPeople(ctx context.Context, q store.DBTX, query string, args ...any) ([]*domain.Person, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	// Empty slice rather than nil so callers can render [] directly.
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

// orderClause builds ORDER BY with nulls first ascending and last
// descending, ties broken by id. PostgreSQL's defaults are the reverse.
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
