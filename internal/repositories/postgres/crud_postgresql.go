package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/elearning-service/internal/cache"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
)

// ScopeFunc restricts a query to the rows visible under scope for userID
type ScopeFunc func(db *gorm.DB, scope policy.Scope, userID uint) *gorm.DB

// CRUDOptions configures a CRUDPostgreSQL
type CRUDOptions struct {
	Resource     string
	Cache        *cache.CacheHelper
	CacheTTL     time.Duration
	Preloads     []string
	Scoper       ScopeFunc
	DefaultOrder string
	// Columns accepted in ListFilter.Where
	Filterable []string
}

// CRUDPostgreSQL is the gorm implementation of repositories.CRUDRepository
type CRUDPostgreSQL[T any] struct {
	db   *gorm.DB
	opts CRUDOptions
}

func NewCRUDPostgreSQL[T any](db *gorm.DB, opts CRUDOptions) *CRUDPostgreSQL[T] {
	if opts.DefaultOrder == "" {
		opts.DefaultOrder = "id ASC"
	}
	return &CRUDPostgreSQL[T]{db: db, opts: opts}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (r *CRUDPostgreSQL[T]) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *CRUDPostgreSQL[T]) withPreloads(db *gorm.DB) *gorm.DB {
	for _, p := range r.opts.Preloads {
		db = db.Preload(p)
	}
	return db
}

func (r *CRUDPostgreSQL[T]) scoped(db *gorm.DB, filter repositories.ListFilter) *gorm.DB {
	if filter.Scope == "" || filter.Scope == policy.ScopeAll {
		return db
	}
	if r.opts.Scoper == nil {
		return db.Where("1 = 0")
	}
	return r.opts.Scoper(db, filter.Scope, filter.UserID)
}

func (r *CRUDPostgreSQL[T]) filtered(db *gorm.DB, where map[string]interface{}) *gorm.DB {
	for _, column := range r.opts.Filterable {
		if value, ok := where[column]; ok {
			db = db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Value: value})
		}
	}
	return db
}

func (r *CRUDPostgreSQL[T]) invalidate(ctx context.Context, id uint) {
	if r.opts.Cache.Available() {
		cache.InvalidateEntity(ctx, r.opts.Cache, r.opts.Resource, id)
	}
}

func (r *CRUDPostgreSQL[T]) Create(ctx context.Context, tx *gorm.DB, record *T) error {
	if err := r.getDB(tx).WithContext(ctx).Create(record).Error; err != nil {
		if repositories.IsDuplicateError(err) {
			return fmt.Errorf("failed to create %s: %w: %w", r.opts.Resource, repositories.ErrDuplicate, err)
		}
		return fmt.Errorf("failed to create %s: %w", r.opts.Resource, err)
	}
	return nil
}

func (r *CRUDPostgreSQL[T]) CreateUnique(ctx context.Context, tx *gorm.DB, record *T, conflictColumns ...string) (bool, error) {
	columns := make([]clause.Column, len(conflictColumns))
	for i, name := range conflictColumns {
		columns[i] = clause.Column{Name: name}
	}

	result := r.getDB(tx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: columns, DoNothing: true}).
		Create(record)
	if result.Error != nil {
		if repositories.IsDuplicateError(result.Error) {
			return false, fmt.Errorf("failed to create %s: %w: %w", r.opts.Resource, repositories.ErrDuplicate, result.Error)
		}
		return false, fmt.Errorf("failed to create %s: %w", r.opts.Resource, result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByID retrieves a record by ID, through the cache when one is configured
func (r *CRUDPostgreSQL[T]) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*T, error) {
	fetch := func() (interface{}, error) {
		var record T
		err := r.withPreloads(r.getDB(tx).WithContext(ctx)).First(&record, id).Error
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("%s %d: %w", r.opts.Resource, id, repositories.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to get %s: %w", r.opts.Resource, err)
		}
		return &record, nil
	}

	if tx != nil || !r.opts.Cache.Available() {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		return value.(*T), nil
	}

	var record T
	if err := r.opts.Cache.CacheOrExecute(ctx, cache.EntityKey(r.opts.Resource, id), &record, r.opts.CacheTTL, fetch); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *CRUDPostgreSQL[T]) GetScoped(ctx context.Context, tx *gorm.DB, id uint, filter repositories.ListFilter) (*T, error) {
	var record T
	query := r.withPreloads(r.getDB(tx).WithContext(ctx).Model(new(T)))
	query = r.scoped(query, filter)
	err := query.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "id"}, Value: id}).First(&record).Error
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("%s %d: %w", r.opts.Resource, id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s: %w", r.opts.Resource, err)
	}
	return &record, nil
}

func (r *CRUDPostgreSQL[T]) Update(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	result := r.getDB(tx).WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		if repositories.IsDuplicateError(result.Error) {
			return fmt.Errorf("failed to update %s: %w: %w", r.opts.Resource, repositories.ErrDuplicate, result.Error)
		}
		return fmt.Errorf("failed to update %s: %w", r.opts.Resource, result.Error)
	}
	r.invalidate(ctx, id)
	return nil
}

// Delete hard-deletes a record
func (r *CRUDPostgreSQL[T]) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := r.getDB(tx).WithContext(ctx).Delete(new(T), id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete %s: %w", r.opts.Resource, result.Error)
	}
	r.invalidate(ctx, id)
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", r.opts.Resource, id, repositories.ErrNotFound)
	}
	return nil
}

// List returns one page of records visible under filter with the total count
func (r *CRUDPostgreSQL[T]) List(ctx context.Context, tx *gorm.DB, filter repositories.ListFilter) ([]T, int64, error) {
	base := r.getDB(tx).WithContext(ctx).Model(new(T))
	base = r.filtered(r.scoped(base, filter), filter.Where)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.opts.Resource, err)
	}

	order := filter.Order
	if order == "" {
		order = r.opts.DefaultOrder
	}
	query := r.withPreloads(base.Session(&gorm.Session{})).Order(order)
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	items := make([]T, 0)
	if err := query.Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list %s: %w", r.opts.Resource, err)
	}
	return items, total, nil
}
