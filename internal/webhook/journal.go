// Package webhook keeps a local journal of gateway webhook deliveries so a
// redelivered payment event never moves money twice.
package webhook

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "payments"

var (
	ErrNotFound   = errors.New("journal entry not found")
	ErrNotUnknown = errors.New("journal entry is not in unknown state")
)

type State string

const (
	StateClaimed   State = "claimed"
	StateCompleted State = "completed"
	// StateUnknown means the transfer may or may not have gone out. Only an
	// operator clears it.
	StateUnknown State = "unknown"
)

// Entry records what was done for one gateway payment id
type Entry struct {
	PaymentID     string    `json:"payment_id"`
	Event         string    `json:"event"`
	State         State     `json:"state"`
	TransferID    string    `json:"transfer_id,omitempty"`
	CorrelationID string    `json:"correlation_id"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Journal struct {
	db *bolt.DB
}

// Open opens (or creates) the journal file at path
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) Get(paymentID string) (*Entry, error) {
	var e Entry
	err := j.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(paymentID))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &e)
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Claim reserves paymentID for processing. When an entry already exists it is
// returned unchanged with claimed=false.
func (j *Journal) Claim(paymentID, event, correlationID string) (*Entry, bool, error) {
	var result Entry
	claimed := false
	err := j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if existing := b.Get([]byte(paymentID)); existing != nil {
			return json.Unmarshal(existing, &result)
		}
		result = Entry{
			PaymentID:     paymentID,
			Event:         event,
			State:         StateClaimed,
			CorrelationID: correlationID,
			UpdatedAt:     time.Now().UTC(),
		}
		data, err := json.Marshal(result)
		if err != nil {
			return err
		}
		claimed = true
		return b.Put([]byte(paymentID), data)
	})
	if err != nil {
		return nil, false, err
	}
	return &result, claimed, nil
}

// Complete marks a claimed payment as done
func (j *Journal) Complete(paymentID, transferID string) error {
	return j.update(paymentID, func(e *Entry) error {
		e.State = StateCompleted
		e.TransferID = transferID
		e.Error = ""
		return nil
	})
}

// MarkUnknown keeps the claim after a transfer whose outcome could not be
// determined, so redeliveries stay deduplicated.
func (j *Journal) MarkUnknown(paymentID, reason string) error {
	return j.update(paymentID, func(e *Entry) error {
		e.State = StateUnknown
		e.Error = reason
		return nil
	})
}

// ClearUnknown drops an unknown entry once an operator has checked the
// gateway, letting the next delivery retry.
func (j *Journal) ClearUnknown(paymentID string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(paymentID))
		if v == nil {
			return ErrNotFound
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		if e.State != StateUnknown {
			return ErrNotUnknown
		}
		return b.Delete([]byte(paymentID))
	})
}

// Release drops a claim so a later delivery can retry. Releasing an unknown
// id is a no-op.
func (j *Journal) Release(paymentID string) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(paymentID))
	})
}

func (j *Journal) update(paymentID string, fn func(e *Entry) error) error {
	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		v := b.Get([]byte(paymentID))
		if v == nil {
			return ErrNotFound
		}
		var e Entry
		if err := json.Unmarshal(v, &e); err != nil {
			return err
		}
		if err := fn(&e); err != nil {
			return err
		}
		e.UpdatedAt = time.Now().UTC()
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put([]byte(paymentID), data)
	})
}
