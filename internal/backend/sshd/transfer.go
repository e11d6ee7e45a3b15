package sshd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/model"
)

const copyChunk = 32 << 10

// task carries one transfer through the per-connection runner. Pause blocks
// the copy loop on a condition variable; cancel aborts it via context.
type task struct {
	item   model.TransferItem
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newTask(parent context.Context, item model.TransferItem) *task {
	ctx, cancel := context.WithCancel(parent)
	t := &task{item: item, ctx: ctx, cancel: cancel}
	t.cond = sync.NewCond(&t.mu)
	return t
}

func (t *task) setPaused(paused bool) {
	t.mu.Lock()
	t.paused = paused
	t.mu.Unlock()
	t.cond.Broadcast()
}

// waitWhilePaused blocks until the task is resumed or cancelled, reporting
// whether the task may continue.
func (t *task) waitWhilePaused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.paused {
		if t.ctx.Err() != nil {
			return false
		}
		t.cond.Wait()
	}
	return t.ctx.Err() == nil
}

// EnqueueTransfers registers the items with the scheduler. Items run
// sequentially per connection in queue order; a full backlog fails the
// whole batch so the caller can surface it.
func (b *Backend) EnqueueTransfers(_ context.Context, items []model.TransferItem) error {
	for _, item := range items {
		c, err := b.lookup(item.ConnectionID)
		if err != nil {
			return err
		}
		t := newTask(c.ctx, item)
		b.mu.Lock()
		b.tasks[item.ID] = t
		b.mu.Unlock()
		select {
		case c.queue <- t:
		default:
			b.mu.Lock()
			delete(b.tasks, item.ID)
			b.mu.Unlock()
			return fmt.Errorf("transfer backlog full for %s", item.ConnectionID)
		}
	}
	return nil
}

// PauseTransfer suspends the copy loop. Unknown ids are no-ops: the command
// may race a completion that already removed the task.
func (b *Backend) PauseTransfer(_ context.Context, transferID string) error {
	if t := b.task(transferID); t != nil {
		t.setPaused(true)
	}
	return nil
}

// ResumeTransfer releases a paused copy loop.
func (b *Backend) ResumeTransfer(_ context.Context, transferID string) error {
	if t := b.task(transferID); t != nil {
		t.setPaused(false)
	}
	return nil
}

// CancelTransfer aborts the task whether it is queued, active, or paused.
func (b *Backend) CancelTransfer(_ context.Context, transferID string) error {
	if t := b.task(transferID); t != nil {
		t.cancel()
		t.cond.Broadcast()
	}
	return nil
}

func (b *Backend) task(transferID string) *task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tasks[transferID]
}

func (b *Backend) dropTask(transferID string) {
	b.mu.Lock()
	delete(b.tasks, transferID)
	b.mu.Unlock()
}

// runTransfers drains the connection's queue until the connection closes.
func (b *Backend) runTransfers(c *conn) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case t := <-c.queue:
			b.runTask(c, t)
			b.dropTask(t.item.ID)
		}
	}
}

func (b *Backend) runTask(c *conn, t *task) {
	if t.ctx.Err() != nil {
		b.finish(t, model.TransferCancelled, "")
		return
	}
	client, err := sftp.NewClient(c.client)
	if err != nil {
		b.finish(t, model.TransferFailed, fmt.Sprintf("open sftp: %v", err))
		return
	}
	defer client.Close()

	var copyErr error
	switch t.item.Direction {
	case model.DirectionUpload:
		copyErr = b.upload(client, t)
	case model.DirectionDownload:
		copyErr = b.download(client, t)
	default:
		copyErr = fmt.Errorf("unknown direction %q", t.item.Direction)
	}
	switch {
	case t.ctx.Err() != nil:
		b.finish(t, model.TransferCancelled, "")
	case copyErr != nil:
		b.finish(t, model.TransferFailed, copyErr.Error())
	default:
		b.finish(t, model.TransferCompleted, "")
	}
}

func (b *Backend) upload(client *sftp.Client, t *task) error {
	src, err := os.Open(t.item.SourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if err := client.MkdirAll(path.Dir(t.item.DestinationPath)); err != nil {
		return fmt.Errorf("mkdir remote: %w", err)
	}
	dst, err := client.Create(t.item.DestinationPath)
	if err != nil {
		return fmt.Errorf("create remote: %w", err)
	}
	defer dst.Close()
	return b.copy(t, dst, src, info.Size())
}

func (b *Backend) download(client *sftp.Client, t *task) error {
	src, err := client.Open(t.item.SourcePath)
	if err != nil {
		return fmt.Errorf("open remote: %w", err)
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat remote: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(t.item.DestinationPath), 0o755); err != nil {
		return fmt.Errorf("mkdir local: %w", err)
	}
	dst, err := os.Create(t.item.DestinationPath)
	if err != nil {
		return fmt.Errorf("create local: %w", err)
	}
	defer dst.Close()
	return b.copy(t, dst, src, info.Size())
}

// copy moves bytes in fixed chunks, honouring pause and cancellation
// between chunks and publishing throttled progress snapshots.
func (b *Backend) copy(t *task, dst io.Writer, src io.Reader, total int64) error {
	progress := newThrottle(250 * time.Millisecond)
	buf := make([]byte, copyChunk)
	var done int64
	start := time.Now()
	for {
		if !t.waitWhilePaused() {
			return t.ctx.Err()
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write: %w", werr)
			}
			done += int64(n)
			if progress.ready() {
				b.publishProgress(t, done, total, start)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return fmt.Errorf("read: %w", rerr)
		}
	}
}

func (b *Backend) publishProgress(t *task, done, total int64, start time.Time) {
	snapshot := t.item
	snapshot.Status = model.TransferActive
	snapshot.Size = total
	if total > 0 {
		snapshot.Progress = float64(done) / float64(total) * 100
	}
	if elapsed := time.Since(start); elapsed > 0 {
		snapshot.Speed = int64(float64(done) / elapsed.Seconds())
		if snapshot.Speed > 0 && total > done {
			snapshot.ETA = time.Duration(float64(total-done)/float64(snapshot.Speed)) * time.Second
		}
	}
	b.feeds.TransferProgress.Publish(backend.TransferEvent{Item: snapshot})
}

func (b *Backend) finish(t *task, status model.TransferStatus, errMsg string) {
	now := time.Now()
	snapshot := t.item
	snapshot.Status = status
	snapshot.Error = errMsg
	snapshot.CompletedAt = &now
	if status == model.TransferCompleted {
		snapshot.Progress = 100
	}
	b.feeds.TransferDone.Publish(backend.TransferEvent{Item: snapshot})
}
