package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wardrobeapi/models"
)

// WorkflowStore persists per-user workflow state so the API and the worker
// see the same draft and styling session.
type WorkflowStore struct {
	KV KeyValueStore
	// StaleAfter releases a busy workflow whose task never reported back.
	StaleAfter time.Duration
	Now        func() time.Time
	locker     *KeyLocker
}

func NewWorkflowStore(kv KeyValueStore, staleAfter time.Duration) *WorkflowStore {
	return &WorkflowStore{KV: kv, StaleAfter: staleAfter, Now: time.Now, locker: defaultLocker}
}

func (w *WorkflowStore) stale(startedAt int64) bool {
	if w.StaleAfter <= 0 || startedAt == 0 {
		return false
	}
	return w.Now().Sub(time.UnixMilli(startedAt)) > w.StaleAfter
}

func (w *WorkflowStore) read(ctx context.Context, key string, into interface{}) (bool, error) {
	raw, found, err := w.KV.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), into); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (w *WorkflowStore) write(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return w.KV.Set(ctx, key, string(raw))
}

func (w *WorkflowStore) LoadDraft(ctx context.Context, username string) (*models.CreationDraft, error) {
	draft := models.NewCreationDraft()
	if _, err := w.read(ctx, DraftKey(username), draft); err != nil {
		return nil, err
	}
	if draft.State == models.DraftAnalyzing && w.stale(draft.StartedAt) {
		FailAnalysis(draft, draft.AttemptID)
	}
	return draft, nil
}

// UpdateDraft applies fn to the stored draft and saves it when fn
// succeeds. Concurrent updates for one user are serialized.
func (w *WorkflowStore) UpdateDraft(ctx context.Context, username string, fn func(*models.CreationDraft) error) (*models.CreationDraft, error) {
	key := DraftKey(username)
	unlock := w.locker.Lock(key)
	defer unlock()

	draft, err := w.LoadDraft(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := fn(draft); err != nil {
		return draft, err
	}
	if err := w.write(ctx, key, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (w *WorkflowStore) LoadStylist(ctx context.Context, username string) (*models.StylingSession, error) {
	session := models.NewStylingSession()
	if _, err := w.read(ctx, StylistKey(username), session); err != nil {
		return nil, err
	}
	if stylistBusy(session) && w.stale(session.StartedAt) {
		if session.State == models.StylistRecommending {
			FailRecommendation(session, session.AttemptID)
		} else {
			FailVisualization(session, session.AttemptID)
		}
	}
	return session, nil
}

func (w *WorkflowStore) UpdateStylist(ctx context.Context, username string, fn func(*models.StylingSession) error) (*models.StylingSession, error) {
	key := StylistKey(username)
	unlock := w.locker.Lock(key)
	defer unlock()

	session, err := w.LoadStylist(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return session, err
	}
	if err := w.write(ctx, key, session); err != nil {
		return nil, err
	}
	return session, nil
}
