// Package transfer implements the canonical transfer queue. The queue is a
// single ordered list; the active and completed collections are pure
// derivations recomputed on read, so the views can never diverge from the
// queue itself.
package transfer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/id"
	"github.com/sshdeck/sshdeck/internal/logging"
	"github.com/sshdeck/sshdeck/internal/logging/events"
	"github.com/sshdeck/sshdeck/internal/model"
)

// Queue is the transfer queue engine. All mutation funnels through its
// mutex; the backend is called outside the lock.
type Queue struct {
	mu      sync.Mutex
	backend backend.Backend
	items   []model.TransferItem
	// prePause remembers the status a pause command displaced, so a resume
	// issued before any backend confirmation restores it exactly.
	prePause map[string]model.TransferStatus
}

// NewQueue constructs an empty queue over the given backend.
func NewQueue(b backend.Backend) *Queue {
	return &Queue{backend: b, prePause: make(map[string]model.TransferStatus)}
}

// Enqueue appends the requests as pending items in input order, then hands
// them to the backend scheduler. If the backend refuses the batch, the items
// transition to failed; queue processing of other items is unaffected.
func (q *Queue) Enqueue(ctx context.Context, reqs []model.TransferRequest) []model.TransferItem {
	if len(reqs) == 0 {
		return nil
	}
	items := make([]model.TransferItem, 0, len(reqs))
	for _, req := range reqs {
		items = append(items, model.TransferItem{
			ID:              id.New(),
			ConnectionID:    req.ConnectionID,
			SourcePath:      req.SourcePath,
			DestinationPath: req.DestinationPath,
			Direction:       req.Direction,
			Status:          model.TransferPending,
			Size:            req.Size,
			Priority:        req.Priority,
		})
	}
	q.mu.Lock()
	q.items = append(q.items, items...)
	q.mu.Unlock()
	events.Transfer.Enqueue(len(items), reqs[0].ConnectionID)

	if err := q.backend.EnqueueTransfers(ctx, items); err != nil {
		logging.Error(fmt.Errorf("enqueue %d transfers: %w", len(items), err))
		now := time.Now()
		q.mu.Lock()
		for _, item := range items {
			if idx := q.indexLocked(item.ID); idx >= 0 {
				q.items[idx].Status = model.TransferFailed
				q.items[idx].Error = err.Error()
				q.items[idx].CompletedAt = &now
			}
		}
		q.mu.Unlock()
	}
	return items
}

// Pause optimistically pauses the item and issues the backend request.
// Unknown ids and items that are not pending or active are no-ops.
func (q *Queue) Pause(ctx context.Context, transferID string) {
	q.mu.Lock()
	idx := q.indexLocked(transferID)
	if idx < 0 {
		q.mu.Unlock()
		return
	}
	status := q.items[idx].Status
	if status != model.TransferPending && status != model.TransferActive {
		q.mu.Unlock()
		return
	}
	q.prePause[transferID] = status
	q.items[idx].Status = model.TransferPaused
	q.mu.Unlock()

	events.Transfer.Pause(transferID)
	if err := q.backend.PauseTransfer(ctx, transferID); err != nil {
		logging.Error(fmt.Errorf("pause transfer %s: %w", transferID, err))
	}
}

// Resume reverses a pause. Before any backend confirmation arrives the item
// returns to its exact pre-pause status; afterwards the backend's replaced
// copy already won and the stashed status is gone.
func (q *Queue) Resume(ctx context.Context, transferID string) {
	q.mu.Lock()
	idx := q.indexLocked(transferID)
	if idx < 0 || q.items[idx].Status != model.TransferPaused {
		q.mu.Unlock()
		return
	}
	restored, ok := q.prePause[transferID]
	if !ok {
		restored = model.TransferActive
	}
	delete(q.prePause, transferID)
	q.items[idx].Status = restored
	q.mu.Unlock()

	events.Transfer.Resume(transferID)
	if err := q.backend.ResumeTransfer(ctx, transferID); err != nil {
		logging.Error(fmt.Errorf("resume transfer %s: %w", transferID, err))
	}
}

// Cancel optimistically cancels the item and issues the backend request.
// Terminal items and unknown ids are no-ops. Cancellation is one-way; the
// backend's eventual completion event replaces the item if it disagrees.
func (q *Queue) Cancel(ctx context.Context, transferID string) {
	q.mu.Lock()
	idx := q.indexLocked(transferID)
	if idx < 0 || q.items[idx].Status.Terminal() {
		q.mu.Unlock()
		return
	}
	delete(q.prePause, transferID)
	now := time.Now()
	q.items[idx].Status = model.TransferCancelled
	q.items[idx].CompletedAt = &now
	q.mu.Unlock()

	events.Transfer.Cancel(transferID)
	if err := q.backend.CancelTransfer(ctx, transferID); err != nil {
		logging.Error(fmt.Errorf("cancel transfer %s: %w", transferID, err))
	}
}

// ApplyProgress replaces the matching item with the backend's copy. Events
// for unknown ids are dropped, as are progress events for items already in
// a terminal status: terminal states are never re-entered.
func (q *Queue) ApplyProgress(item model.TransferItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(item.ID)
	if idx < 0 {
		events.Transfer.Dropped(item.ID, "unknown")
		return
	}
	if q.items[idx].Status.Terminal() {
		events.Transfer.Dropped(item.ID, "terminal")
		return
	}
	delete(q.prePause, item.ID)
	q.items[idx] = item
}

// ApplyCompletion replaces the matching item with the backend's final copy
// (last-write-wins by id). Unknown ids are dropped.
func (q *Queue) ApplyCompletion(item model.TransferItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexLocked(item.ID)
	if idx < 0 {
		events.Transfer.Dropped(item.ID, "unknown")
		return
	}
	delete(q.prePause, item.ID)
	if item.CompletedAt == nil && item.Status.Terminal() {
		now := time.Now()
		item.CompletedAt = &now
	}
	q.items[idx] = item
	events.Transfer.Completed(item.ID, string(item.Status))
}

// Items returns the canonical queue in order.
func (q *Queue) Items() []model.TransferItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	dup := make([]model.TransferItem, len(q.items))
	copy(dup, q.items)
	return dup
}

// Get looks an item up by id.
func (q *Queue) Get(transferID string) (model.TransferItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if idx := q.indexLocked(transferID); idx >= 0 {
		return q.items[idx], true
	}
	return model.TransferItem{}, false
}

// Active derives the pending and active items in queue order. Paused items
// appear in neither derived view, only in the canonical queue.
func (q *Queue) Active() []model.TransferItem {
	return q.filter(func(s model.TransferStatus) bool {
		return s == model.TransferPending || s == model.TransferActive
	})
}

// Completed derives the terminal items in queue order.
func (q *Queue) Completed() []model.TransferItem {
	return q.filter(model.TransferStatus.Terminal)
}

func (q *Queue) filter(keep func(model.TransferStatus) bool) []model.TransferItem {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.TransferItem, 0, len(q.items))
	for _, item := range q.items {
		if keep(item.Status) {
			out = append(out, item)
		}
	}
	return out
}

func (q *Queue) indexLocked(transferID string) int {
	for i := range q.items {
		if q.items[i].ID == transferID {
			return i
		}
	}
	return -1
}
