package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/reservas-api/internal/domain"
	"github.com/jhoicas/reservas-api/internal/domain/entity"
)

func records(recs ...entity.InventoryRecord) map[string]*entity.InventoryRecord {
	m := make(map[string]*entity.InventoryRecord, len(recs))
	for i := range recs {
		m[recs[i].ProductID] = &recs[i]
	}
	return m
}

func TestApplyReservation_TodoONada(t *testing.T) {
	m := records(
		entity.InventoryRecord{ProductID: "a", Stock: 10},
		entity.InventoryRecord{ProductID: "b", Stock: 1},
	)
	err := ApplyReservation(m, []string{"a", "b"}, map[string]int64{"a": 3, "b": 2})

	var re *domain.ReasonError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "insufficient_stock:b", re.Error())
	assert.Equal(t, int64(0), m["a"].Reserved, "a no debe reservarse si b falla")
}

func TestApplyReservation_ProductoInexistente(t *testing.T) {
	err := ApplyReservation(records(), []string{"x"}, map[string]int64{"x": 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyReservation_LimiteExacto(t *testing.T) {
	m := records(entity.InventoryRecord{ProductID: "a", Stock: 5, Reserved: 3})
	require.NoError(t, ApplyReservation(m, []string{"a"}, map[string]int64{"a": 2}))
	assert.Equal(t, int64(5), m["a"].Reserved)
	assert.Equal(t, int64(0), m["a"].Available())
}

func TestApplyFinalization(t *testing.T) {
	m := records(entity.InventoryRecord{ProductID: "a", Stock: 5, Reserved: 2})
	require.NoError(t, ApplyFinalization(m, []string{"a"}, map[string]int64{"a": 2}))
	assert.Equal(t, int64(3), m["a"].Stock)
	assert.Equal(t, int64(0), m["a"].Reserved)

	err := ApplyFinalization(m, []string{"a"}, map[string]int64{"a": 1})
	var re *domain.ReasonError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, domain.ReasonInsufficientReserved, re.Code)
	assert.Equal(t, int64(3), m["a"].Stock)
}

func TestApplyRelease_NoBajaDeCero(t *testing.T) {
	rec := &entity.InventoryRecord{ProductID: "a", Stock: 5, Reserved: 2}
	assert.Equal(t, int64(2), ApplyRelease(rec, 10))
	assert.Equal(t, int64(0), rec.Reserved)
	assert.Equal(t, int64(0), ApplyRelease(rec, 1))
	assert.Equal(t, int64(0), ApplyRelease(rec, -3))
}
