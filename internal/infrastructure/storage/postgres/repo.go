package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"beneficio/internal/core/apperror"
	"beneficio/internal/core/id"
)

// baseRepo provides common CRUD operations shared by the domain
// repositories. Embed it in specific repositories.
type baseRepo[T any] struct {
	txm       *TxManager
	tableName string
	cols      []string
}

func newBaseRepo[T any](txm *TxManager, tableName string) baseRepo[T] {
	return baseRepo[T]{
		txm:       txm,
		tableName: tableName,
		cols:      ExtractDBColumns[T](),
	}
}

// builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *baseRepo[T]) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// baseSelect creates a SELECT builder over the repo's columns.
func (r *baseRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.cols...).
		From(r.tableName)
}

// insert stores a new entity using its "db" tags.
func (r *baseRepo[T]) insert(ctx context.Context, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	// Filter to only include columns that exist in DB
	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(r.tableName).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("record already exists").
				WithDetail("entity", r.tableName).
				WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}

	return nil
}

// update modifies an existing entity with optimistic locking.
// The WHERE clause matches the version the caller read; zero rows
// affected means another writer got there first.
func (r *baseRepo[T]) update(ctx context.Context, entity any) error {
	data := StructToMap(entity)
	if len(data) == 0 {
		return fmt.Errorf("no db tags found in entity")
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}

	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	// Exclude immutable fields from SET
	filteredData := make(map[string]any, len(r.cols))
	for _, col := range r.cols {
		if col == "id" {
			continue // never update ID
		}
		if col == "version" {
			continue // version is managed here (optimistic locking)
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(r.tableName).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}

	// Sync the in-memory version with the row so a second update of the
	// same struct within the transaction still matches.
	if v, ok := entity.(interface{ SetVersion(int) }); ok {
		v.SetVersion(version + 1)
	}

	return nil
}

// getByID retrieves entity by ID.
func (r *baseRepo[T]) getByID(ctx context.Context, entityID id.ID) (*T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Limit(1)

	return r.findOne(ctx, q, entityID.String())
}

// getForUpdate retrieves entity by ID with a row lock held for the rest
// of the transaction.
func (r *baseRepo[T]) getForUpdate(ctx context.Context, entityID id.ID) (*T, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"id": entityID}).
		Suffix("FOR UPDATE")

	return r.findOne(ctx, q, entityID.String())
}

// findOne executes a SELECT query and returns a single entity.
func (r *baseRepo[T]) findOne(ctx context.Context, q squirrel.SelectBuilder, ref string) (*T, error) {
	entity := new(T)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(r.tableName, ref)
		}
		return nil, fmt.Errorf("get %s: %w", r.tableName, err)
	}

	return entity, nil
}

// selectMany executes a SELECT query returning all matching entities.
func (r *baseRepo[T]) selectMany(ctx context.Context, q squirrel.SelectBuilder) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []T
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.tableName, err)
	}

	return items, nil
}

// deleteByID performs physical removal from the database.
func (r *baseRepo[T]) deleteByID(ctx context.Context, entityID id.ID) error {
	q := r.builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		// Check for foreign key violation (23503)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.NewConflict("record is referenced by other records").
				WithDetail("entity", r.tableName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}

	return nil
}
