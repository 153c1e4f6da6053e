// Package gamelog keeps the append-only local queue of finished games and
// flushes it opportunistically to the recorder endpoint. Entries survive
// power cycles in a bbolt bucket and are deleted only once the endpoint has
// acknowledged them.
package gamelog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/wfunc/simonbadge/logger"
)

var bucketGames = []byte("games")

const (
	ModeSolo   = "solo"
	ModeVersus = "versus"
)

// Entry is one finished game. The JSON shape is the recorder's wire format.
type Entry struct {
	ID       string    `json:"id"`
	Badge    string    `json:"badge"`
	Mode     string    `json:"mode"`
	Rounds   int       `json:"rounds"`
	DidWin   bool      `json:"did_win"`
	Peer     string    `json:"peer,omitempty"`
	Seed     uint32    `json:"seed,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

type Store struct {
	db       *bolt.DB
	endpoint string
	badge    string
	client   *http.Client
}

func Open(path, endpoint, badge string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("gamelog: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketGames)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("gamelog: create bucket: %w", err)
	}
	return &Store{
		db:       db,
		endpoint: endpoint,
		badge:    badge,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Append queues one finished game.
func (s *Store) Append(e Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Badge == "" {
		e.Badge = s.badge
	}
	if e.PlayedAt.IsZero() {
		e.PlayedAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGames).Put([]byte(e.ID), data)
	})
}

// Pending returns all queued entries.
func (s *Store) Pending() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketGames).ForEach(func(k, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				// a corrupt entry should not wedge the queue forever
				logger.Log.Warnf("gamelog: dropping corrupt entry %s: %v", k, err)
				return nil
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

// Flush uploads all pending entries and deletes the ones the recorder
// acknowledged. Failures leave the queue untouched for the next attempt.
func (s *Store) Flush(ctx context.Context) error {
	entries, err := s.Pending()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	body, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("gamelog: flush: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gamelog: flush rejected with status %d", resp.StatusCode)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketGames)
		for _, e := range entries {
			if err := b.Delete([]byte(e.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Infof("gamelog: flushed %d games", len(entries))
	return nil
}
