package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"wardrobeapi/models"
)

// ItemStore is the inventory of a single user. Every mutation is written
// through to the KeyValueStore before it becomes visible; a failed write
// leaves the previous sequence in place.
type ItemStore struct {
	KV       KeyValueStore
	Metrics  *Metrics
	username string
	key      string
	locker   *KeyLocker

	mu    sync.RWMutex
	items []models.ClothingItem
}

// NewItemStore loads the inventory stored for username. A user with no
// stored inventory starts empty.
func NewItemStore(ctx context.Context, kv KeyValueStore, username string) (*ItemStore, error) {
	s := &ItemStore{
		KV:       kv,
		username: username,
		key:      InventoryKey(username),
		locker:   defaultLocker,
	}
	items, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.items = items
	return s, nil
}

func (s *ItemStore) Username() string {
	return s.username
}

// List returns the items newest first. The slice is a copy.
func (s *ItemStore) List() []models.ClothingItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ClothingItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *ItemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *ItemStore) Get(id string) (models.ClothingItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.ClothingItem{}, false
}

// Add puts item at the front of the inventory.
func (s *ItemStore) Add(ctx context.Context, item models.ClothingItem) error {
	err := s.mutate(ctx, func(current []models.ClothingItem) ([]models.ClothingItem, error) {
		for _, existing := range current {
			if existing.ID == item.ID {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentifier, item.ID)
			}
		}
		next := make([]models.ClothingItem, 0, len(current)+1)
		next = append(next, item)
		return append(next, current...), nil
	})
	s.Metrics.InventoryMutation("add", err)
	return err
}

// Remove deletes the item with id. Removing an unknown id is a no-op.
func (s *ItemStore) Remove(ctx context.Context, id string) error {
	err := s.mutate(ctx, func(current []models.ClothingItem) ([]models.ClothingItem, error) {
		next := make([]models.ClothingItem, 0, len(current))
		for _, item := range current {
			if item.ID != id {
				next = append(next, item)
			}
		}
		if len(next) == len(current) {
			return nil, nil
		}
		return next, nil
	})
	s.Metrics.InventoryMutation("remove", err)
	return err
}

// mutate runs fn against the durable sequence. A nil result with a nil
// error means nothing changed and nothing is written.
func (s *ItemStore) mutate(ctx context.Context, fn func([]models.ClothingItem) ([]models.ClothingItem, error)) error {
	unlock := s.locker.Lock(s.key)
	defer unlock()

	current, err := s.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		s.replace(current)
		return err
	}
	if next == nil {
		s.replace(current)
		return nil
	}
	if err := s.save(ctx, next); err != nil {
		s.replace(current)
		return err
	}
	s.replace(next)
	return nil
}

func (s *ItemStore) replace(items []models.ClothingItem) {
	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
}

func (s *ItemStore) load(ctx context.Context) ([]models.ClothingItem, error) {
	raw, found, err := s.KV.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load inventory of %s: %w", s.username, err)
	}
	if !found || raw == "" {
		return []models.ClothingItem{}, nil
	}
	var items []models.ClothingItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode inventory of %s: %w", s.username, err)
	}
	if items == nil {
		items = []models.ClothingItem{}
	}
	return items, nil
}

func (s *ItemStore) save(ctx context.Context, items []models.ClothingItem) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode inventory of %s: %w", s.username, err)
	}
	if err := s.KV.Set(ctx, s.key, string(raw)); err != nil {
		return fmt.Errorf("persist inventory of %s: %w", s.username, err)
	}
	return nil
}
