// checkpoint creates CheckpointIO which stores burn-in positions and fit
// results of a run in a bolt database.
package checkpoint

import (
	"encoding/json"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	bolt "go.etcd.io/bbolt"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the bucket name for all the fits.
var MAIN = []byte("main")

const (
	burninSuffix = "/burnin"
	resultSuffix = "/result"
)

// ResultData stores a finished (or partial) fit.
type ResultData struct {
	Names       []string
	Best        []float64
	BestLogProb float64
	Kept        int
	Filtered    int
	Walkers     int
	Burnin      int
	Steps       int
	Final       bool
}

// positions is the serialized walker matrix. ID identifies the setup
// the positions were sampled with.
type positions struct {
	ID   string
	Rows int
	Cols int
	Data []float64
}

// CheckpointIO saves and loads checkpoints of a single fit.
type CheckpointIO struct {
	db  *bolt.DB
	key []byte
}

// NewCheckpointIO creates a new CheckpointIO. A nil db disables all
// the operations.
func NewCheckpointIO(db *bolt.DB, key []byte) (s *CheckpointIO) {
	s = &CheckpointIO{
		db:  db,
		key: key,
	}
	return
}

func (s *CheckpointIO) subkey(suffix string) []byte {
	k := make([]byte, 0, len(s.key)+len(suffix))
	k = append(k, s.key...)
	return append(k, suffix...)
}

// Key returns the checkpoint key.
func (s *CheckpointIO) Key() string {
	return string(s.key)
}

// SaveBurnin saves the walker positions at the end of burn-in together
// with the setup id.
func (s *CheckpointIO) SaveBurnin(m *mat.Dense, id string) error {
	if m == nil {
		return errors.New("no positions to save")
	}
	r, c := m.Dims()
	p := positions{
		ID:   id,
		Rows: r,
		Cols: c,
		Data: mat.DenseCopyOf(m).RawMatrix().Data,
	}
	dataB, err := json.Marshal(p)
	if err != nil {
		log.Error("Error serializing burn-in positions", err)
		return err
	}
	err = SaveData(s.db, s.subkey(burninSuffix), dataB)
	if err != nil {
		log.Error("Error saving burn-in positions", err)
	}
	return err
}

// Burnin returns the saved burn-in positions, or nil if there are none
// or they were saved with a different id.
func (s *CheckpointIO) Burnin(id string) (*mat.Dense, error) {
	b, err := LoadData(s.db, s.subkey(burninSuffix))
	if err != nil || b == nil {
		return nil, err
	}

	var p positions
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	if p.Rows < 1 || p.Cols < 1 || len(p.Data) != p.Rows*p.Cols {
		return nil, errors.Errorf("corrupted burn-in checkpoint (%dx%d, %d values)", p.Rows, p.Cols, len(p.Data))
	}
	if p.ID != id {
		log.Noticef("Ignoring burn-in checkpoint of a different setup (%s)", p.ID)
		return nil, nil
	}

	log.Noticef("Found burn-in checkpoint (%d walkers)", p.Rows)
	return mat.NewDense(p.Rows, p.Cols, p.Data), nil
}

// SaveResult saves the fit result.
func (s *CheckpointIO) SaveResult(data *ResultData) error {
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing result", err)
		return err
	}
	err = SaveData(s.db, s.subkey(resultSuffix), dataB)
	if err != nil {
		log.Error("Error saving result", err)
	}
	return err
}

// Result returns the saved fit result, or nil if there is none.
func (s *CheckpointIO) Result() (*ResultData, error) {
	var data *ResultData

	b, err := LoadData(s.db, s.subkey(resultSuffix))

	if err != nil || b == nil {
		return nil, err
	}

	err = json.Unmarshal(b, &data)

	if err != nil {
		return nil, err
	}

	if data == nil || len(data.Best) == 0 {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished fit checkpoint (lnP=%v)", data.BestLogProb)
	} else {
		log.Noticef("Found unfinished fit checkpoint (lnP=%v)", data.BestLogProb)
	}

	return data, nil
}

// SaveData saves values in bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads data from bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		v := b.Get(key)
		if v != nil {
			// v is only valid inside the transaction
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
