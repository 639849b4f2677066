package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SAP-F-2025/elearning-service/internal/metrics"
	"github.com/SAP-F-2025/elearning-service/internal/policy"
	"github.com/SAP-F-2025/elearning-service/internal/repositories"
	"github.com/SAP-F-2025/elearning-service/internal/validator"
)

// ListQuery is a page request with column filters taken from the query string
type ListQuery struct {
	Offset int
	Limit  int
	Where  map[string]interface{}
	Order  string
}

// ResourceService is the CRUD contract every resource endpoint is built on
type ResourceService[T any, C any, U any] interface {
	List(ctx context.Context, actor *policy.Actor, q ListQuery) ([]T, int64, error)
	Create(ctx context.Context, actor *policy.Actor, req *C) (*T, error)
	Get(ctx context.Context, actor *policy.Actor, id uint) (*T, error)
	Update(ctx context.Context, actor *policy.Actor, id uint, req *U) (*T, error)
	Delete(ctx context.Context, actor *policy.Actor, id uint) error
}

// crudHooks plug resource rules into crudService
type crudHooks[T any, C any, U any] struct {
	// build turns a create request into a record. parent, when not nil, is the
	// record whose owners may create under it.
	build func(ctx context.Context, actor *policy.Actor, req *C) (record *T, parent policy.Owned, err error)
	// insert persists a new record; store.Create when nil
	insert func(ctx context.Context, record *T) error
	// patch returns the column updates for req
	patch func(ctx context.Context, actor *policy.Actor, current *T, req *U) (map[string]interface{}, error)
	// update persists fields and any related rows of req; store.Update when nil
	update func(ctx context.Context, current *T, fields map[string]interface{}, req *U) error
	// duplicate maps a unique violation to its error code
	duplicate func(err error) error
	// created runs after a successful create
	created func(ctx context.Context, record *T)
}

type crudService[T any, C any, U any] struct {
	resource  string
	store     repositories.CRUDRepository[T]
	validator *validator.Validator
	logger    *slog.Logger
	hooks     crudHooks[T, C, U]
}

var _ ResourceService[struct{}, struct{}, struct{}] = (*crudService[struct{}, struct{}, struct{}])(nil)

func newCRUDService[T any, C any, U any](
	resource string,
	store repositories.CRUDRepository[T],
	validator *validator.Validator,
	logger *slog.Logger,
	hooks crudHooks[T, C, U],
) *crudService[T, C, U] {
	return &crudService[T, C, U]{
		resource:  resource,
		store:     store,
		validator: validator,
		logger:    logger.With("resource", resource),
		hooks:     hooks,
	}
}

func (s *crudService[T, C, U]) filter(actor *policy.Actor) repositories.ListFilter {
	return repositories.ListFilter{Scope: policy.ScopeFor(actor, s.resource), UserID: actor.ID}
}

func owned(record any) policy.Owned {
	if o, ok := record.(policy.Owned); ok {
		return o
	}
	return nil
}

func (s *crudService[T, C, U]) List(ctx context.Context, actor *policy.Actor, q ListQuery) ([]T, int64, error) {
	if err := policy.Authorize(actor, s.resource, policy.ActionList, nil); err != nil {
		return nil, 0, err
	}

	filter := s.filter(actor)
	filter.Where = q.Where
	filter.Offset = q.Offset
	filter.Limit = q.Limit
	filter.Order = q.Order

	items, total, err := s.store.List(ctx, nil, filter)
	if err != nil {
		return nil, 0, dbError("list "+s.resource, err)
	}
	return items, total, nil
}

func (s *crudService[T, C, U]) Create(ctx context.Context, actor *policy.Actor, req *C) (*T, error) {
	if err := policy.Authorize(actor, s.resource, policy.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	record, parent, err := s.hooks.build(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if parent != nil {
		if err := policy.Authorize(actor, s.resource, policy.ActionCreate, parent); err != nil {
			return nil, err
		}
	}

	if s.hooks.insert != nil {
		err = s.hooks.insert(ctx, record)
	} else {
		err = s.store.Create(ctx, nil, record)
	}
	if err != nil {
		return nil, s.writeError("create", err)
	}

	id := recordID(record)
	s.logger.Info("Record created", "id", id, "user_id", actor.ID)
	metrics.RecordCreated(s.resource)

	created, err := s.store.GetByID(ctx, nil, id)
	if err != nil {
		return nil, storeError(s.resource, id, "reload "+s.resource, err)
	}
	if s.hooks.created != nil {
		s.hooks.created(ctx, created)
	}
	return created, nil
}

func (s *crudService[T, C, U]) Get(ctx context.Context, actor *policy.Actor, id uint) (*T, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}

	record, err := s.store.GetScoped(ctx, nil, id, s.filter(actor))
	if err != nil {
		return nil, storeError(s.resource, id, "get "+s.resource, err)
	}
	if err := policy.Authorize(actor, s.resource, policy.ActionRetrieve, owned(record)); err != nil {
		return nil, err
	}
	return record, nil
}

// load fetches id unscoped and checks actor may perform action on it
func (s *crudService[T, C, U]) load(ctx context.Context, actor *policy.Actor, id uint, action policy.Action) (*T, error) {
	if err := policy.CheckActor(actor); err != nil {
		return nil, err
	}

	record, err := s.store.GetByID(ctx, nil, id)
	if err != nil {
		return nil, storeError(s.resource, id, "get "+s.resource, err)
	}
	if err := policy.Authorize(actor, s.resource, action, owned(record)); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *crudService[T, C, U]) Update(ctx context.Context, actor *policy.Actor, id uint, req *U) (*T, error) {
	current, err := s.load(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	fields, err := s.hooks.patch(ctx, actor, current, req)
	if err != nil {
		return nil, err
	}
	if s.hooks.update != nil {
		err = s.hooks.update(ctx, current, fields, req)
	} else if len(fields) == 0 {
		return current, nil
	} else {
		err = s.store.Update(ctx, nil, id, fields)
	}
	if err != nil {
		return nil, s.writeError("update", err)
	}
	s.logger.Info("Record updated", "id", id, "user_id", actor.ID, "fields", len(fields))

	updated, err := s.store.GetByID(ctx, nil, id)
	if err != nil {
		return nil, storeError(s.resource, id, "reload "+s.resource, err)
	}
	return updated, nil
}

func (s *crudService[T, C, U]) Delete(ctx context.Context, actor *policy.Actor, id uint) error {
	if _, err := s.load(ctx, actor, id, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, nil, id); err != nil {
		return storeError(s.resource, id, "delete "+s.resource, err)
	}
	s.logger.Info("Record deleted", "id", id, "user_id", actor.ID)
	return nil
}

func (s *crudService[T, C, U]) writeError(op string, err error) error {
	if isServiceError(err) {
		return err
	}
	if repositories.IsDuplicateError(err) {
		if s.hooks.duplicate != nil {
			return s.hooks.duplicate(err)
		}
		return duplicate("DUPLICATE_"+policy.CodeName(s.resource), "A record with these values already exists.")
	}
	return dbError(op+" "+s.resource, err)
}

// identified is implemented by records exposing their primary key
type identified interface {
	GetID() uint
}

func recordID(record any) uint {
	if r, ok := record.(identified); ok {
		return r.GetID()
	}
	return 0
}

// isServiceError reports whether err already carries its response mapping
func isServiceError(err error) bool {
	var (
		appErr *AppError
		dupErr *DuplicateError
		nfErr  *NotFoundError
	)
	return errors.As(err, &appErr) || errors.As(err, &dupErr) || errors.As(err, &nfErr)
}
