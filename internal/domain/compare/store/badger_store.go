// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps records under "snap:<id>" as JSON.
type BadgerStore struct {
	db *badger.DB
}

func NewBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func snapKey(id string) []byte { return []byte("snap:" + id) }

func (s *BadgerStore) Put(_ context.Context, rec *Record) error {
	if err := ValidateID(rec.SessionID); err != nil {
		return err
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(snapKey(rec.SessionID), buf)
	})
}

func (s *BadgerStore) Get(_ context.Context, sessionID string) (*Record, error) {
	var out Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapKey(sessionID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *BadgerStore) Delete(_ context.Context, sessionID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(snapKey(sessionID))
	})
}

func (s *BadgerStore) Backend() string { return BackendBadger }

func (s *BadgerStore) Close() error { return s.db.Close() }
