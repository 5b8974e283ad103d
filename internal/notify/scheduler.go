package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expense-tracker/internal/models"
	"expense-tracker/internal/stats"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scheduler periodically evaluates alerts for every user holding a live session.
// Stored notifications are deduplicated by key, so a condition is reported once
// per month no matter how many ticks observe it.
type Scheduler struct {
	DB         *gorm.DB
	Interval   time.Duration
	Thresholds Thresholds
	Publisher  Publisher

	now func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(db *gorm.DB, interval time.Duration, th Thresholds, pub Publisher) *Scheduler {
	if pub == nil {
		pub = LogPublisher{}
	}
	return &Scheduler{
		DB:         db,
		Interval:   interval,
		Thresholds: th,
		Publisher:  pub,
		now:        time.Now,
	}
}

// Run checks once immediately, then on every tick until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Notification scheduler started", "interval", s.Interval.String())
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			slog.ErrorContext(ctx, "Notification check failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Notification scheduler stopped", "reason", ctx.Err())
			return nil
		case <-ticker.C:
		}
	}
}

// Start runs the scheduler in the background until Stop is called or ctx ends.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		_ = s.Run(ctx)
	}(s.done)
}

// Stop cancels a started scheduler and waits for the loop to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce evaluates every user with an active session and returns how many
// notifications were created.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	var userIDs []uint
	if err := s.DB.WithContext(ctx).
		Model(&models.Session{}).
		Where("revoked = ? AND expires_at > ?", false, s.now()).
		Distinct().
		Pluck("user_id", &userIDs).Error; err != nil {
		return 0, fmt.Errorf("list active sessions: %w", err)
	}

	created := 0
	for _, id := range userIDs {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		list, err := s.CheckUser(ctx, id)
		if err != nil {
			slog.ErrorContext(ctx, "Notification check failed for user", "user_id", id, "error", err)
			continue
		}
		created += len(list)
	}
	return created, nil
}

// CheckUser evaluates one user now and stores any new notifications.
func (s *Scheduler) CheckUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	db := s.DB.WithContext(ctx)
	month := stats.MonthKey(s.now())

	var categories []models.Category
	if err := db.Where("user_id IS NULL OR user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	var budgets []models.Budget
	if err := db.Where("user_id = ? AND month = ?", userID, month).Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	var txs []models.Transaction
	if err := db.Where("user_id = ?", userID).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	overview := stats.Summarize(budgets, categories, txs)
	balance := stats.OverallTotals(txs).Balance
	alerts := Evaluate(overview, balance, month, s.Thresholds)

	var created []models.Notification
	for _, a := range alerts {
		n := models.Notification{
			UserID:   userID,
			Key:      a.Key,
			BudgetID: a.BudgetID,
			Kind:     a.Kind,
			Message:  a.Message,
			Month:    a.Month,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&n)
		if res.Error != nil {
			return created, fmt.Errorf("store notification: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		created = append(created, n)
		if err := s.Publisher.Publish(ctx, &n); err != nil {
			slog.WarnContext(ctx, "Publish notification failed", "user_id", userID, "kind", n.Kind, "error", err)
		}
	}
	return created, nil
}
