package postgresrepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubDB struct{ DB }

func TestInventoryBindsToTransactionCopy(t *testing.T) {
	repo := NewStore(nil).Inventory()
	assert.Nil(t, repo.db)

	tx := &stubDB{}
	bound := repo.With(tx)

	assert.Same(t, tx, bound.handle())
	assert.Nil(t, repo.db, "With must not mutate the pool-bound repo")
}
