package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"everpack/internal/core/entity"
	"everpack/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code   string `db:"code" json:"code"`
	Name   string `db:"name" json:"name"`
	Ignore string `db:"-" json:"ignore"`
	NoTag  string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	for _, expected := range []string{"id", "deletion_mark", "version", "code", "name"} {
		assert.Contains(t, cols, expected)
	}
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "ignore")
}

func TestStructToMap(t *testing.T) {
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				DeletionMark: true,
				Version:      5,
			},
		},
		Code:   "BEV-COLA-500",
		Name:   "Cola 500ml",
		Ignore: "skipped",
		NoTag:  "skipped",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "BEV-COLA-500", m["code"])
	assert.Equal(t, "Cola 500ml", m["name"])
	assert.NotContains(t, m, "-")
	assert.Len(t, m, 5)
}

func TestStructToMap_Pointer(t *testing.T) {
	cat := &mockCatalog{Code: "SUP-000001", Name: "Coastal Distributors"}

	m := StructToMap(cat)

	assert.Equal(t, "SUP-000001", m["code"])
	assert.Equal(t, "Coastal Distributors", m["name"])
}
