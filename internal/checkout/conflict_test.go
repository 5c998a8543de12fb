package checkout

import (
	"errors"
	"fmt"
	"testing"

	"kafe-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestIsConflict(t *testing.T) {
	assert.False(t, isConflict(nil))

	// Unique index ihlali: aynı telefondan yarışan iki ilk ziyaretin izi
	assert.True(t, isConflict(gorm.ErrDuplicatedKey))
	assert.True(t, isConflict(fmt.Errorf("müşteri kaydı: %w", gorm.ErrDuplicatedKey)))

	// Postgres serialization / deadlock kodları
	assert.True(t, isConflict(errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")))
	assert.True(t, isConflict(errors.New("ERROR: deadlock detected (SQLSTATE 40P01)")))

	assert.False(t, isConflict(gorm.ErrRecordNotFound))
	assert.False(t, isConflict(errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")))
	assert.False(t, isConflict(ErrValidation))
}

// failCreates: verilen tabloya yapılan ilk n INSERT'i verilen hatayla düşürür,
// tabloya kaçıncı kez gelindiğini sayar. Test bitince callback sökülür.
func failCreates(t *testing.T, db *gorm.DB, table string, n int, fail error) *int {
	t.Helper()

	attempts := 0
	name := "test:fail_" + table + "_create"
	err := db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != table {
			return
		}
		attempts++
		if attempts <= n {
			tx.AddError(fail)
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })

	return &attempts
}

func TestProcessRetriesDuplicateCustomerInsert(t *testing.T) {
	f := newFixture(t)

	// Aynı telefondan yarışan iki ilk ziyaret: geç kalan INSERT unique index'e
	// takılır. Düşen deneme komple geri alınır, ikinci deneme baştan başarır.
	attempts := failCreates(t, f.db, "customer", 1, gorm.ErrDuplicatedKey)

	res, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.NoError(t, err)
	assert.Equal(t, 2, *attempts)
	assert.True(t, res.NewCustomer)

	// Düşen ilk denemeden iz kalmamalı
	assert.Equal(t, int64(1), f.count(t, &models.Customer{}))
	assert.Equal(t, int64(1), f.count(t, &models.Receipt{}))
	assert.True(t, f.ingredientQty(t, f.milk.ID).Equal(decimal.NewFromInt(9)))
}

func TestProcessConflictExhaustsRetries(t *testing.T) {
	f := newFixture(t)

	serializationErr := errors.New("ERROR: could not serialize access due to concurrent update (SQLSTATE 40001)")
	attempts := failCreates(t, f.db, "receipt", maxConflictRetries, serializationErr)

	_, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxConflictRetries, *attempts)

	// Hiçbir deneme commit'lenmemiş olmalı
	assert.Equal(t, int64(0), f.count(t, &models.Customer{}))
	assert.Equal(t, int64(0), f.count(t, &models.Receipt{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderLine{}))
	assert.True(t, f.ingredientQty(t, f.milk.ID).Equal(decimal.NewFromInt(10)))
}

func TestProcessStoreErrorNotRetried(t *testing.T) {
	f := newFixture(t)

	// Çakışma sayılmayan G/Ç hatası tek seferde ErrStore olarak yüzeye çıkar
	attempts := failCreates(t, f.db, "receipt", 1, errors.New("write: broken pipe"))

	_, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
	assert.Equal(t, 1, *attempts)

	assert.Equal(t, int64(0), f.count(t, &models.Customer{}))
	assert.Equal(t, int64(0), f.count(t, &models.Receipt{}))
}
