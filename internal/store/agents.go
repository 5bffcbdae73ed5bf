// Marquee - PVR Profiling and Recording Priority Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/marquee/internal/models"
)

// AgentTx is the write-lock scope for structural agent changes. It is
// only valid inside the function passed to UpdateAgents.
type AgentTx interface {
	// Agents returns every agent in ID order, including pending writes.
	Agents() ([]*models.Agent, error)
	// Get returns one agent or ErrNotFound.
	Get(id int64) (*models.Agent, error)
	// FindRule returns the agent with the same rule tuple as a, or
	// ErrNotFound.
	FindRule(a *models.Agent) (*models.Agent, error)
	// Add stores a under a new ID. When an agent with the same rule
	// already exists it is returned instead and created is false.
	Add(a *models.Agent) (stored *models.Agent, created bool, err error)
	// Update replaces an existing agent. It fails with ErrDuplicateAgent
	// when the new rule collides with another agent.
	Update(a *models.Agent) error
	// Delete removes an agent. Missing agents are ignored.
	Delete(id int64) error
}

// UpdateAgents runs fn inside the agent write lock and one Badger
// transaction. Any error from fn discards every change it made.
func (s *BadgerStore) UpdateAgents(ctx context.Context, fn func(AgentTx) error) (err error) {
	defer observe("update_agents", time.Now(), &err)
	if err := s.check(ctx); err != nil {
		return err
	}
	s.agentMu.Lock()
	defer s.agentMu.Unlock()

	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&agentTx{ctx: ctx, store: s, txn: txn})
	})
}

type agentTx struct {
	ctx   context.Context
	store *BadgerStore
	txn   *badger.Txn
}

func (t *agentTx) Agents() ([]*models.Agent, error) {
	return scan[models.Agent](t.ctx, t.txn, prefixAgent)
}

func (t *agentTx) Get(id int64) (*models.Agent, error) {
	var a models.Agent
	if err := getTxn(t.txn, prefixAgent, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *agentTx) FindRule(a *models.Agent) (*models.Agent, error) {
	all, err := t.Agents()
	if err != nil {
		return nil, err
	}
	key := a.RuleKey()
	for _, other := range all {
		if other.RuleKey() == key {
			return other, nil
		}
	}
	return nil, ErrNotFound
}

func (t *agentTx) Add(a *models.Agent) (*models.Agent, bool, error) {
	existing, err := t.FindRule(a)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	next, err := t.store.agentSeq.Next()
	if err != nil {
		return nil, false, fmt.Errorf("next agent id: %w", err)
	}
	stored := a.Clone()
	stored.ID = int64(next) + 1
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	if err := t.write(stored); err != nil {
		return nil, false, err
	}
	return stored, true, nil
}

func (t *agentTx) Update(a *models.Agent) error {
	if _, err := t.Get(a.ID); err != nil {
		return err
	}
	other, err := t.FindRule(a)
	switch {
	case err == nil && other.ID != a.ID:
		return fmt.Errorf("%w: agent %d", ErrDuplicateAgent, other.ID)
	case err != nil && !errors.Is(err, ErrNotFound):
		return err
	}
	return t.write(a)
}

func (t *agentTx) Delete(id int64) error {
	err := t.txn.Delete(recordKey(prefixAgent, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (t *agentTx) write(a *models.Agent) error {
	data, err := marshal(a)
	if err != nil {
		return fmt.Errorf("marshal agent %d: %w", a.ID, err)
	}
	return t.txn.Set(recordKey(prefixAgent, a.ID), data)
}
