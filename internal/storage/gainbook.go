package storage

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/san-kum/loopkit/internal/autotune"
)

const (
	gainPrefix = "gains:"
	timeIndex  = "gains_time"
)

// GainRecord is one autotuning result.
type GainRecord struct {
	ID        string  `json:"id"`
	Plant     string  `json:"plant"`
	Rule      string  `json:"rule"`
	Kp        float64 `json:"kp"`
	Ki        float64 `json:"ki"`
	Kd        float64 `json:"kd"`
	Ku        float64 `json:"ku"`
	Tu        float64 `json:"tu"`
	Cycles    int     `json:"cycles"`
	Timestamp int64   `json:"timestamp"`
}

func (r GainRecord) Gains() autotune.Gains {
	return autotune.Gains{Kp: r.Kp, Ki: r.Ki, Kd: r.Kd}
}

func (r GainRecord) Time() time.Time { return time.Unix(0, r.Timestamp) }

// GainBook keeps tuned gains per plant, ordered by time.
type GainBook struct {
	db  *buntdb.DB
	now func() time.Time
}

// OpenGainBook opens or creates the book at path. ":memory:" keeps it
// in memory only.
func OpenGainBook(path string) (*GainBook, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open gain book %s", path)
	}
	if err := db.CreateIndex(timeIndex, gainPrefix+"*", buntdb.IndexJSON("timestamp")); err != nil && err != buntdb.ErrIndexExists {
		db.Close()
		return nil, errors.Wrap(err, "create gain index")
	}
	return &GainBook{db: db, now: time.Now}, nil
}

func (b *GainBook) Close() error { return b.db.Close() }

// Record stores the gains derived from est under rule for plant.
func (b *GainBook) Record(plant string, rule autotune.Rule, g autotune.Gains, est autotune.Estimate) (GainRecord, error) {
	rec := GainRecord{
		ID:        uuid.NewString(),
		Plant:     plant,
		Rule:      rule.Name,
		Kp:        g.Kp,
		Ki:        g.Ki,
		Kd:        g.Kd,
		Ku:        est.Ku,
		Tu:        est.Tu,
		Cycles:    est.Cycles,
		Timestamp: b.now().UnixNano(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return GainRecord{}, err
	}
	err = b.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(gainPrefix+rec.ID, string(data), nil)
		return err
	})
	if err != nil {
		return GainRecord{}, errors.Wrap(err, "store gains")
	}
	return rec, nil
}

// History returns every record for plant, oldest first. An empty plant
// returns all records.
func (b *GainBook) History(plant string) ([]GainRecord, error) {
	records := make([]GainRecord, 0)
	var decodeErr error
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(timeIndex, func(key, value string) bool {
			var rec GainRecord
			if err := json.Unmarshal([]byte(value), &rec); err != nil {
				decodeErr = errors.Wrapf(err, "decode %s", key)
				return false
			}
			if plant == "" || rec.Plant == plant {
				records = append(records, rec)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return records, nil
}

// Latest returns the most recent record for plant.
func (b *GainBook) Latest(plant string) (GainRecord, error) {
	history, err := b.History(plant)
	if err != nil {
		return GainRecord{}, err
	}
	if len(history) == 0 {
		return GainRecord{}, errors.Wrapf(ErrNoGains, "plant %q", plant)
	}
	return history[len(history)-1], nil
}
