package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"jetfeed-backend/internal/common/logger"
	"jetfeed-backend/internal/features/user/repository"
)

const (
	propagationBatchSize    = 200
	propagationPollInterval = 5 * time.Second
)

// PropagationQueue persists pending snapshot-propagation jobs and the
// per-user cursor that makes an interrupted pass resumable.
type PropagationQueue interface {
	Enqueue(ctx context.Context, userID string) error
	// Dequeue blocks up to timeout; returns "" when nothing is pending.
	Dequeue(ctx context.Context, timeout time.Duration) (string, error)
	Cursor(ctx context.Context, userID string) (int64, error)
	SetCursor(ctx context.Context, userID string, cursor int64) error
	ClearCursor(ctx context.Context, userID string) error
}

// Propagator is the background worker that finishes author-snapshot
// propagation passes that failed or were interrupted inline.
type Propagator struct {
	repo    repository.UserRepository
	updater AuthorPostsUpdater
	queue   PropagationQueue

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPropagator(repo repository.UserRepository, updater AuthorPostsUpdater, queue PropagationQueue) *Propagator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Propagator{
		repo:    repo,
		updater: updater,
		queue:   queue,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Propagator) Start() {
	p.wg.Add(1)
	go p.loop()
	logger.Info().Msg("Snapshot propagation worker started")
}

func (p *Propagator) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Propagator) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		userID, err := p.queue.Dequeue(p.ctx, propagationPollInterval)
		if err != nil {
			if p.ctx.Err() != nil {
				return
			}
			logger.Error().Err(err).Msg("Propagation dequeue failed")
			time.Sleep(propagationPollInterval)
			continue
		}
		if userID == "" {
			continue
		}

		if err := p.run(userID); err != nil {
			logger.Warn().Err(err).Str("user_id", userID).Msg("Propagation pass incomplete, requeueing")
			if qErr := p.queue.Enqueue(p.ctx, userID); qErr != nil {
				logger.Error().Err(qErr).Str("user_id", userID).Msg("Failed to requeue propagation job")
			}
			time.Sleep(propagationPollInterval)
		}
	}
}

// run resumes the pass for one user from the persisted cursor.
func (p *Propagator) run(userID string) error {
	user, err := p.repo.GetByID(p.ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return p.queue.ClearCursor(p.ctx, userID)
		}
		return err
	}

	snap := user.Snapshot()
	cursor, err := p.queue.Cursor(p.ctx, userID)
	if err != nil {
		return err
	}

	for {
		next, done, err := p.updater.UpdateAuthorSnapshot(p.ctx, userID, snap, cursor, propagationBatchSize)
		if err != nil {
			_ = p.queue.SetCursor(p.ctx, userID, cursor)
			return err
		}
		if done {
			logger.Debug().Str("user_id", userID).Msg("Snapshot propagation complete")
			return p.queue.ClearCursor(p.ctx, userID)
		}
		cursor = next
		if err := p.queue.SetCursor(p.ctx, userID, cursor); err != nil {
			return err
		}
	}
}
