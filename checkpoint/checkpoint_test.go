package checkpoint

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	bolt "go.etcd.io/bbolt"
)

func openDB(t *testing.T) *bolt.DB {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "cp.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLoadData(t *testing.T) {
	db := openDB(t)

	data, err := LoadData(db, []byte("missing"))
	assert.NoError(t, err)
	assert.Nil(t, data)

	require.NoError(t, SaveData(db, []byte("k"), []byte("value")))
	data, err = LoadData(db, []byte("k"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), data)
}

func TestBurninRoundTrip(t *testing.T) {
	db := openDB(t)
	cp := NewCheckpointIO(db, []byte("fit"))

	m, err := cp.Burnin("setup")
	assert.NoError(t, err)
	assert.Nil(t, m)

	pos := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, cp.SaveBurnin(pos, "setup"))

	m, err = cp.Burnin("setup")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, mat.Equal(pos, m))

	// a different setup under the same key
	m, err = cp.Burnin("other setup")
	assert.NoError(t, err)
	assert.Nil(t, m)

	// other keys do not see it
	m, err = NewCheckpointIO(db, []byte("other")).Burnin("setup")
	assert.NoError(t, err)
	assert.Nil(t, m)

	assert.Error(t, cp.SaveBurnin(nil, "setup"))
	assert.Equal(t, "fit", cp.Key())
}

func TestResultRoundTrip(t *testing.T) {
	db := openDB(t)
	cp := NewCheckpointIO(db, []byte("fit"))

	res, err := cp.Result()
	assert.NoError(t, err)
	assert.Nil(t, res)

	data := &ResultData{
		Names:       []string{"a", "b"},
		Best:        []float64{2, 1},
		BestLogProb: -0.1,
		Kept:        90,
		Filtered:    10,
		Walkers:     10,
		Steps:       10,
		Final:       true,
	}
	require.NoError(t, cp.SaveResult(data))

	res, err = cp.Result()
	require.NoError(t, err)
	assert.Equal(t, data, res)
}

func TestCorruptedBurnin(t *testing.T) {
	db := openDB(t)
	cp := NewCheckpointIO(db, []byte("fit"))
	require.NoError(t, SaveData(db, []byte("fit/burnin"), []byte(`{"Rows":2,"Cols":2,"Data":[1]}`)))

	_, err := cp.Burnin("")
	assert.Error(t, err)
}

func TestNilDB(t *testing.T) {
	cp := NewCheckpointIO(nil, []byte("fit"))

	assert.NoError(t, cp.SaveBurnin(mat.NewDense(1, 1, nil), "setup"))
	m, err := cp.Burnin("setup")
	assert.NoError(t, err)
	assert.Nil(t, m)

	assert.NoError(t, cp.SaveResult(&ResultData{Best: []float64{1}}))
	res, err := cp.Result()
	assert.NoError(t, err)
	assert.Nil(t, res)
}
