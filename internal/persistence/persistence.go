package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/dMopp/hass-lunos/internal/lunos"
	"github.com/dMopp/hass-lunos/internal/ui"
	bolt "go.etcd.io/bbolt"
	"os"
	"path/filepath"
	"time"
)

const (
	BucketUnits = "units"
)

// UnitState is the part of a unit's state that cannot be read back from its relays
type UnitState struct {
	// Speed is the last speed commanded by lunos2go, informational only
	Speed       lunos.SpeedName       `json:"speed"`
	Preset      string                `json:"preset"`
	Ventilation lunos.VentilationMode `json:"ventilation"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}

type Persistence interface {
	Init() error

	LoadUnitState(unitId string) (UnitState, error)
	SaveUnitState(unitId string, state UnitState) error
	DeleteUnitState(unitId string) error
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

// SaveUnitState saves the given state of a unit to persistence
func (p persistence) SaveUnitState(unitId string, state UnitState) (err error) {
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
		b, err := tx.CreateBucketIfNotExists([]byte(BucketUnits))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		return b.Put([]byte(unitId), data)
	})
}

// LoadUnitState loads the state of a unit from persistence,
// returns os.ErrNotExist if nothing was saved for the given unit yet.
func (p persistence) LoadUnitState(unitId string) (UnitState, error) {
	var state UnitState

	db, err := p.openPersistence()
	if err != nil {
		return state, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	corrupt := false
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketUnits))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(unitId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &state)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved unit state for %s: %v", unitId, err)
			err := b.Delete([]byte(unitId))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", unitId, err)
			}
			corrupt = true
		}

		return nil
	})
	if err == nil && corrupt {
		return UnitState{}, os.ErrNotExist
	}

	return state, err
}

func (p persistence) DeleteUnitState(unitId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketUnits))
		if b == nil {
			// no unit bucket yet
			return nil
		}
		return b.Delete([]byte(unitId))
	})
}
