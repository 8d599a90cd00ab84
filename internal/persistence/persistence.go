package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/ecfan/ecfan/internal/ec"
	"github.com/ecfan/ecfan/internal/ui"
	bolt "go.etcd.io/bbolt"
	"os"
	"path/filepath"
	"time"
)

const (
	BucketControllerState = "controllerState"
)

// ControllerState is the state of the control loop that survives restarts
// and is visible to other ecfan processes.
type ControllerState struct {
	Snapshot        ec.Snapshot `json:"snapshot"`
	LastAppliedDuty int         `json:"lastAppliedDuty"`
	AutoEnabled     bool        `json:"autoEnabled"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

type Persistence interface {
	Init() error

	LoadControllerState(id string) (ControllerState, error)
	SaveControllerState(id string, state ControllerState) (err error)
	DeleteControllerState(id string) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	// get parent path of dbPath
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		// create directory
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveControllerState saves the given state of the control loop with the given id
func (p persistence) SaveControllerState(id string, state ControllerState) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketControllerState))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(id), data)
	})
}

// LoadControllerState loads the state of the control loop with the given id.
// Returns os.ErrNotExist if no (readable) state was saved yet.
func (p persistence) LoadControllerState(id string) (ControllerState, error) {
	var state ControllerState

	db, err := p.openPersistence()
	if err != nil {
		return state, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketControllerState))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(id))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &state)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved controller state for %s: %v", id, err)
			err := b.Delete([]byte(id))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", id, err)
			}
			state = ControllerState{}
			return os.ErrNotExist
		}

		return nil
	})

	return state, err
}

func (p persistence) DeleteControllerState(id string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketControllerState))
		if b == nil {
			// no bucket yet
			return nil
		}
		v := b.Get([]byte(id))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(id))
	})
}
