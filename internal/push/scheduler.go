package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mlahtinen/paced/internal/model"
	"github.com/mlahtinen/paced/internal/store"
)

// Scheduler sends the evening streak reminder to users who registered push
// subscriptions and have not completed their daily goal yet.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	push     *store.PushStore
	logger   *slog.Logger
	interval time.Duration
	hour     int // UTC hour for reminders
	sentOn   map[int64]string
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a reminder scheduler. reminderHour is the UTC hour
// (0-23) after which the daily reminder may fire.
func NewScheduler(svc *Service, pushStore *store.PushStore, reminderHour int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		service:  svc,
		push:     pushStore,
		logger:   logger,
		interval: 5 * time.Minute,
		hour:     reminderHour,
		sentOn:   make(map[int64]string),
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now().UTC())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	if now.Hour() < s.hour {
		return
	}
	today := now.Format("2006-01-02")

	subs, err := s.push.ListPendingReminder()
	if err != nil {
		s.logger.Error("list pending reminders", "error", err)
		return
	}

	payload := Payload{
		Title: "Keep your streak alive",
		Body:  "You still have today's items to finish.",
		URL:   "/today",
		Tag:   "streak-reminder-" + today,
	}

	byUser := make(map[int64][]*model.PushSubscription)
	for _, sub := range subs {
		byUser[sub.UserID] = append(byUser[sub.UserID], sub)
	}

	for userID, userSubs := range byUser {
		s.mu.Lock()
		already := s.sentOn[userID] == today
		if !already {
			s.sentOn[userID] = today
		}
		s.mu.Unlock()
		if already {
			continue
		}

		for _, sub := range userSubs {
			if err := s.service.Send(sub, payload); err != nil {
				if errors.Is(err, ErrExpired) {
					if err := s.push.DeleteByEndpoint(sub.Endpoint); err != nil {
						s.logger.Error("prune expired subscription", "error", err)
					}
					continue
				}
				s.logger.Error("send streak reminder", "user", userID, "error", err)
			}
		}
	}
}
