// Package scheduler contains the background dispatch loop that publishes due posts
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/skandydoc/instagram-automation-tool/config"
	"github.com/skandydoc/instagram-automation-tool/models"
	"github.com/skandydoc/instagram-automation-tool/repository"
	"github.com/skandydoc/instagram-automation-tool/utils"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// DispatchScheduler periodically scans for due posts and publishes them
// through the gateway. Posts of the same account are dispatched strictly in
// scheduled order; different accounts proceed in parallel.
type DispatchScheduler struct {
	postRepo    repository.PostRepository
	accountRepo repository.AccountRepository
	publisher   PostPublisher
	logger      *log.Logger
	cfg         config.SchedulerConfig

	db  *gorm.DB
	now func() time.Time
}

// NewDispatchScheduler creates the dispatch loop
func NewDispatchScheduler(
	postRepo repository.PostRepository,
	accountRepo repository.AccountRepository,
	publisher PostPublisher,
	db *gorm.DB,
	cfg config.SchedulerConfig,
) *DispatchScheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = utils.DispatchTimeout
	}
	if cfg.LeaseDuration <= 0 {
		cfg.LeaseDuration = utils.DispatchClaimLease
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}

	s := &DispatchScheduler{
		postRepo:    postRepo,
		accountRepo: accountRepo,
		publisher:   publisher,
		db:          db,
		cfg:         cfg,
		now:         utils.UTCNow,
	}
	s.initLogger()

	return s
}

// initLogger writes to stdout and a size-rotated file under data/
func (s *DispatchScheduler) initLogger() {
	rotated := &lumberjack.Logger{
		Filename:   "data/dispatcher.log",
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotated)
	s.logger = log.New(mw, "dispatcher ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *DispatchScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *DispatchScheduler) runOnce(ctx context.Context) {
	now := s.now()

	due, err := s.postRepo.ListDue(ctx, now, s.cfg.BatchSize)
	if err != nil {
		s.logger.Printf("dispatcher: list due posts failed: %v", err)
		return
	}
	duePostsGauge.Set(float64(len(due)))
	if len(due) == 0 {
		return
	}
	s.logger.Printf("dispatcher: %d posts due", len(due))

	// ListDue orders by account then scheduled time, so each group is
	// already in dispatch order.
	byAccount := make(map[uint][]*models.Post)
	order := make([]uint, 0)
	for _, p := range due {
		if _, seen := byAccount[p.AccountID]; !seen {
			order = append(order, p.AccountID)
		}
		byAccount[p.AccountID] = append(byAccount[p.AccountID], p)
	}

	for _, accountID := range order {
		posts := byAccount[accountID]
		go func(accountID uint, posts []*models.Post) {
			if err := s.processAccountPosts(ctx, accountID, posts); err != nil {
				s.logger.Printf("dispatcher: account id=%d batch failed: %v", accountID, err)
			}
		}(accountID, posts)
	}
}

// processAccountPosts dispatches one account's due posts in order. The loop
// stops at the first post that stays scheduled (claimed elsewhere or
// re-enqueued for retry) so later posts never overtake it.
func (s *DispatchScheduler) processAccountPosts(ctx context.Context, accountID uint, posts []*models.Post) error {
	account, err := s.accountRepo.ByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		s.logger.Printf("dispatcher: account id=%d vanished, skipping %d posts", accountID, len(posts))
		return nil
	}

	for _, post := range posts {
		done, err := s.dispatchOne(ctx, account, post)
		if err != nil {
			return err
		}
		if !done {
			return nil
		}
	}

	return nil
}

// dispatchOne claims and publishes a single post. It returns true when the
// post reached a terminal state, false when dispatch should pause for this
// account (claim lost or retry scheduled).
func (s *DispatchScheduler) dispatchOne(ctx context.Context, account *models.Account, post *models.Post) (bool, error) {
	now := s.now()

	claimed, err := s.postRepo.Claim(ctx, post.ID, now, s.cfg.LeaseDuration)
	if err != nil {
		return false, err
	}
	if !claimed {
		// Cancelled meanwhile, or another worker holds the lease.
		return false, nil
	}
	post.ClaimedAt = &now

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	started := time.Now()
	instagramPostID, err := s.publisher.PublishPost(callCtx, account, post)
	cancel()
	dispatchDurationSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		return s.handleFailure(ctx, post, err)
	}

	completedAt := s.now()
	post.Status = models.PostStatusPosted
	post.ActualPostTime = &completedAt
	post.InstagramPostID = &instagramPostID
	post.NextAttemptAt = nil
	post.ClaimedAt = nil
	if err := s.postRepo.Update(ctx, post); err != nil {
		return false, err
	}

	dispatchAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Printf("dispatcher: post uuid=%s published as %s", post.UUID, instagramPostID)
	return true, nil
}

// handleFailure applies the retry policy: transient failures re-enqueue with
// growing backoff until the retry budget is spent, fatal failures and
// exhausted budgets mark the post failed with the last error preserved.
func (s *DispatchScheduler) handleFailure(ctx context.Context, post *models.Post, dispatchErr error) (bool, error) {
	message := dispatchErr.Error()
	post.ErrorMessage = &message
	post.ClaimedAt = nil

	exhausted := post.RetryCount >= utils.MaxDispatchRetries
	if IsFatalDispatchError(dispatchErr) || exhausted {
		post.Status = models.PostStatusFailed
		post.NextAttemptAt = nil
		if err := s.postRepo.Update(ctx, post); err != nil {
			return false, err
		}
		if IsFatalDispatchError(dispatchErr) {
			dispatchAttemptsTotal.WithLabelValues("fatal_error").Inc()
		} else {
			dispatchAttemptsTotal.WithLabelValues("retries_exhausted").Inc()
		}
		s.logger.Printf("dispatcher: post uuid=%s failed permanently after %d retries: %v", post.UUID, post.RetryCount, dispatchErr)
		// Terminal state, the account's next post may proceed.
		return true, nil
	}

	post.RetryCount++
	nextAttempt := s.now().Add(utils.RetryBackoffs[post.RetryCount-1])
	post.NextAttemptAt = &nextAttempt
	if err := s.postRepo.Update(ctx, post); err != nil {
		return false, err
	}

	dispatchAttemptsTotal.WithLabelValues("transient_error").Inc()
	dispatchRetriesTotal.Inc()
	s.logger.Printf("dispatcher: post uuid=%s retry %d scheduled for %s: %v", post.UUID, post.RetryCount, nextAttempt.Format(time.RFC3339), dispatchErr)
	// The retrying post keeps its place in the account's queue.
	return false, nil
}
