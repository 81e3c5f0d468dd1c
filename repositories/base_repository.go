package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is the repository-level sentinel services translate into their
// own not-found errors.
var ErrNotFound = errors.New("record not found")

// IBaseRepository covers the CRUD every entity repository shares.
type IBaseRepository[T any] interface {
	Create(ctx context.Context, entity *T) error
	FindByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SetAllowedSortColumns(cols []string)
	OrderExpr(requested, orderBy, fallback string) string
}

// BaseRepository implements IBaseRepository over a gorm handle (live
// connection or transaction).
type BaseRepository[T any] struct {
	db          *gorm.DB
	allowedSort map[string]struct{}
}

// NewBaseRepository wraps db for entity type T.
func NewBaseRepository[T any](db *gorm.DB) *BaseRepository[T] {
	return &BaseRepository[T]{db: db, allowedSort: make(map[string]struct{})}
}

// SetAllowedSortColumns whitelists sortable columns for OrderExpr.
func (r *BaseRepository[T]) SetAllowedSortColumns(cols []string) {
	r.allowedSort = make(map[string]struct{}, len(cols))
	for _, c := range cols {
		r.allowedSort[c] = struct{}{}
	}
}

// OrderExpr builds an ORDER BY expression, falling back when the requested
// column is not whitelisted.
func (r *BaseRepository[T]) OrderExpr(requested, orderBy, fallback string) string {
	col := fallback
	if _, ok := r.allowedSort[requested]; ok {
		col = requested
	}
	if orderBy != "asc" && orderBy != "desc" {
		orderBy = "desc"
	}
	return col + " " + orderBy
}

func (r *BaseRepository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

func (r *BaseRepository[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var entity T
	if err := r.db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (r *BaseRepository[T]) Save(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Save(entity).Error
}

var _ IBaseRepository[struct{}] = (*BaseRepository[struct{}])(nil)
