package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crmportal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Schema declares how an entity is listed, filtered and written.
type Schema struct {
	Table string
	Alias string

	// Columns are the SELECT expressions of an enriched row. Joined display
	// names resolve in the same statement.
	Columns []string
	Joins   []string

	// Predicates maps each recognized filter key to exactly one predicate.
	Predicates map[string]Predicate
	Order      []string

	// Mutable columns are overwritten by Update.
	Mutable []string

	// OptionLabel and OptionOrder drive ForSelect.
	OptionLabel string
	OptionOrder string
	OptionWhere map[string]interface{}
}

// Repository is the data access contract shared by every entity. M is the
// stored model, R the enriched row returned by reads.
type Repository[M any, R any] struct {
	db     *gorm.DB
	schema Schema
	log    *logrus.Entry
}

type keyed interface {
	PrimaryKey() uint
}

type extraColumns interface {
	ExtraUpdateColumns() []string
}

func New[M any, R any](db *gorm.DB, schema Schema) *Repository[M, R] {
	return &Repository[M, R]{
		db:     db,
		schema: schema,
		log:    logrus.WithField("component", schema.Table),
	}
}

func (r *Repository[M, R]) col(name string) string {
	return r.schema.Alias + "." + name
}

func (r *Repository[M, R]) from(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table(r.schema.Table + " AS " + r.schema.Alias)
}

// rows builds the enriched SELECT with filters applied but no ordering.
func (r *Repository[M, R]) rows(ctx context.Context, filter Filter) *gorm.DB {
	q := r.from(ctx).Select(strings.Join(r.schema.Columns, ", "))
	for _, join := range r.schema.Joins {
		q = q.Joins(join)
	}
	return applyConditions(q, r.schema.Predicates, filter)
}

func (r *Repository[M, R]) ordered(q *gorm.DB) *gorm.DB {
	for _, o := range r.schema.Order {
		q = q.Order(o)
	}
	return q
}

func windowed(q *gorm.DB, w Window) *gorm.DB {
	if w.Limit > 0 {
		q = q.Limit(w.Limit)
	}
	if w.Offset > 0 {
		q = q.Offset(w.Offset)
	}
	return q
}

// GetAll returns the enriched rows matching filter in list order.
func (r *Repository[M, R]) GetAll(ctx context.Context, filter Filter, w Window) ([]R, error) {
	var rows []R
	q := windowed(r.ordered(r.rows(ctx, filter)), w)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.schema.Table, err)
	}
	return rows, nil
}

// GetByID returns one enriched row or ErrNotFound.
func (r *Repository[M, R]) GetByID(ctx context.Context, id uint) (*R, error) {
	var rows []R
	q := r.rows(ctx, nil).Where(r.col("id")+" = ?", id).Limit(1)
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("get %s %d: %w", r.schema.Table, id, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// Find loads the stored model without joins, for edit forms.
func (r *Repository[M, R]) Find(ctx context.Context, id uint) (*M, error) {
	rec := new(M)
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", r.schema.Table, id, err)
	}
	return rec, nil
}

// Count shares the predicate builder with GetAll, so it always equals the
// unwindowed list length.
func (r *Repository[M, R]) Count(ctx context.Context, filter Filter) (int64, error) {
	var total int64
	q := applyConditions(r.from(ctx), r.schema.Predicates, filter)
	if err := q.Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.schema.Table, err)
	}
	return total, nil
}

// Create inserts rec and returns its new id.
func (r *Repository[M, R]) Create(ctx context.Context, rec *M) (uint, error) {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, fmt.Errorf("create %s: %w", r.schema.Table, err)
	}

	var id uint
	if k, ok := any(rec).(keyed); ok {
		id = k.PrimaryKey()
	}
	r.log.WithField("id", id).Debug("Record created")
	return id, nil
}

// Update overwrites every mutable column of row id in one statement.
func (r *Repository[M, R]) Update(ctx context.Context, id uint, rec *M) error {
	cols := make([]string, 0, len(r.schema.Mutable)+2)
	cols = append(cols, r.schema.Mutable...)
	cols = append(cols, "updated_at")
	if x, ok := any(rec).(extraColumns); ok {
		cols = append(cols, x.ExtraUpdateColumns()...)
	}

	res := r.db.WithContext(ctx).Model(new(M)).Where("id = ?", id).Select(cols).Updates(rec)
	if res.Error != nil {
		return fmt.Errorf("update %s %d: %w", r.schema.Table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes row id. References held by other rows are left dangling.
func (r *Repository[M, R]) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(M))
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", r.schema.Table, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	r.log.WithField("id", id).Debug("Record deleted")
	return nil
}

// Exists reports whether row id is present. Used to validate references.
func (r *Repository[M, R]) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(M)).Where("id = ?", id).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("exists %s %d: %w", r.schema.Table, id, err)
	}
	return n > 0, nil
}

// ForSelect lists id and display name pairs for dropdowns.
func (r *Repository[M, R]) ForSelect(ctx context.Context) ([]models.Option, error) {
	var opts []models.Option
	q := r.db.WithContext(ctx).Model(new(M)).
		Select("id, " + r.schema.OptionLabel + " AS name").
		Order(r.schema.OptionOrder)
	if len(r.schema.OptionWhere) > 0 {
		q = q.Where(r.schema.OptionWhere)
	}
	if err := q.Scan(&opts).Error; err != nil {
		return nil, fmt.Errorf("options %s: %w", r.schema.Table, err)
	}
	return opts, nil
}

type groupCount struct {
	Label string
	Total int64
}

type groupSum struct {
	Label string
	Total float64
}

// CountBy groups every row by column and counts each group.
func (r *Repository[M, R]) CountBy(ctx context.Context, column string) (map[string]int64, error) {
	var groups []groupCount
	err := r.db.WithContext(ctx).Model(new(M)).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("count %s by %s: %w", r.schema.Table, column, err)
	}

	out := make(map[string]int64, len(groups))
	for _, g := range groups {
		out[g.Label] = g.Total
	}
	return out, nil
}

// SumBy groups every row by column and sums value per group.
func (r *Repository[M, R]) SumBy(ctx context.Context, column, value string) (map[string]float64, error) {
	var groups []groupSum
	err := r.db.WithContext(ctx).Model(new(M)).
		Select(column + " AS label, COALESCE(SUM(" + value + "), 0) AS total").
		Group(column).
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("sum %s by %s: %w", r.schema.Table, column, err)
	}

	out := make(map[string]float64, len(groups))
	for _, g := range groups {
		out[g.Label] = g.Total
	}
	return out, nil
}
