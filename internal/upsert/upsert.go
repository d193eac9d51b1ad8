// Package upsert implements idempotent create-if-missing over any store that
// can look records up by a natural key.
package upsert

import (
	"context"
	"errors"
	"fmt"
)

// Store finds and creates single records by natural key.
type Store[K comparable, P any] interface {
	FindByKey(ctx context.Context, key K) (id string, found bool, err error)
	Create(ctx context.Context, key K, payload P) (id string, err error)
}

// SetStore lists every existing record of a set at once and creates
// individual members.
type SetStore[K comparable, P any] interface {
	Existing(ctx context.Context) (map[K]string, error)
	Create(ctx context.Context, key K, payload P) (id string, err error)
}

// StoreFuncs adapts plain functions to Store and SetStore.
type StoreFuncs[K comparable, P any] struct {
	FindFunc     func(ctx context.Context, key K) (string, bool, error)
	ExistingFunc func(ctx context.Context) (map[K]string, error)
	CreateFunc   func(ctx context.Context, key K, payload P) (string, error)
}

func (s StoreFuncs[K, P]) FindByKey(ctx context.Context, key K) (string, bool, error) {
	if s.FindFunc == nil {
		return "", false, nil
	}
	return s.FindFunc(ctx, key)
}

func (s StoreFuncs[K, P]) Existing(ctx context.Context) (map[K]string, error) {
	if s.ExistingFunc == nil {
		return map[K]string{}, nil
	}
	return s.ExistingFunc(ctx)
}

func (s StoreFuncs[K, P]) Create(ctx context.Context, key K, payload P) (string, error) {
	if s.CreateFunc == nil {
		return "", errors.New("upsert: create not supported")
	}
	return s.CreateFunc(ctx, key, payload)
}

// Outcome is the result of upserting one key.
type Outcome struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// Item is one member of a set upsert.
type Item[K comparable, P any] struct {
	Key     K
	Payload P
}

// Upsert returns the identifier of the record with key, creating it from
// payload when FindByKey reports no match. Keys are compared exactly.
func Upsert[K comparable, P any](ctx context.Context, store Store[K, P], key K, payload P) (Outcome, error) {
	id, found, err := store.FindByKey(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("upsert %v: lookup: %w", key, err)
	}
	if found {
		return Outcome{ID: id}, nil
	}
	id, err = store.Create(ctx, key, payload)
	if err != nil {
		return Outcome{}, fmt.Errorf("upsert %v: create: %w", key, err)
	}
	return Outcome{ID: id, Created: true}, nil
}

// UpsertSet fetches the existing set once and creates only the missing
// members. The returned outcomes are aligned with items; a member whose
// creation failed has a zero Outcome. Creation errors do not stop the
// remaining members and are returned joined. Repeated keys are created once.
func UpsertSet[K comparable, P any](ctx context.Context, store SetStore[K, P], items []Item[K, P]) ([]Outcome, error) {
	existing, err := store.Existing(ctx)
	if err != nil {
		return nil, fmt.Errorf("upsert set: list existing: %w", err)
	}
	known := make(map[K]string, len(existing)+len(items))
	for k, id := range existing {
		known[k] = id
	}

	out := make([]Outcome, len(items))
	var errs []error
	for i, it := range items {
		if id, ok := known[it.Key]; ok {
			out[i] = Outcome{ID: id}
			continue
		}
		id, err := store.Create(ctx, it.Key, it.Payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("create %v: %w", it.Key, err))
			continue
		}
		known[it.Key] = id
		out[i] = Outcome{ID: id, Created: true}
	}
	return out, errors.Join(errs...)
}

// Counts summarises a batch of outcomes.
type Counts struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

// Tally counts created, existing and failed (zero) outcomes.
func Tally(outcomes []Outcome) Counts {
	var c Counts
	for _, o := range outcomes {
		switch {
		case o.ID == "":
			c.Failed++
		case o.Created:
			c.Created++
		default:
			c.Existing++
		}
	}
	return c
}

// IDs maps each item key to its resolved identifier, omitting failures.
func IDs[K comparable, P any](items []Item[K, P], outcomes []Outcome) map[K]string {
	m := make(map[K]string, len(items))
	for i, it := range items {
		if i < len(outcomes) && outcomes[i].ID != "" {
			m[it.Key] = outcomes[i].ID
		}
	}
	return m
}
