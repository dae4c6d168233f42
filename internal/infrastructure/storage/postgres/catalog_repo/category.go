package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"everpack/internal/core/apperror"
	"everpack/internal/domain/catalogs/category"
	"everpack/internal/infrastructure/storage/postgres"
)

const categoryTable = "cat_categories"

// CategoryRepo implements category.Repository.
type CategoryRepo struct {
	*BaseCatalogRepo[*category.Category]
}

// NewCategoryRepo creates a new category repository.
func NewCategoryRepo(txm *postgres.TxManager) *CategoryRepo {
	return &CategoryRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*category.Category](
			txm,
			categoryTable,
			postgres.ExtractDBColumns[category.Category](),
			func() *category.Category { return &category.Category{} },
		),
	}
}

// FindByName retrieves a category by exact name.
func (r *CategoryRepo) FindByName(ctx context.Context, name string) (*category.Category, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"name": name}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("category", name)
		}
		return nil, err
	}
	return item, nil
}
