package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"stock-advisor/internal/markethours"
	"stock-advisor/internal/service"
)

type messageSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

type alertMode int

const (
	alertStatus alertMode = iota
	alertOn
	alertOff
)

// AlertDispatcher holds the chats subscribed to the post-close watchlist
// digest. Subscriptions live in memory only.
type AlertDispatcher struct {
	sender messageSender
	now    func() time.Time

	mu   sync.RWMutex
	subs map[int64]time.Time
}

func NewAlertDispatcher(sender messageSender) *AlertDispatcher {
	return &AlertDispatcher{
		sender: sender,
		now:    time.Now,
		subs:   make(map[int64]time.Time),
	}
}

// Subscribe reports whether the chat was newly added.
func (d *AlertDispatcher) Subscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subs[chatID]; ok {
		return false
	}
	d.subs[chatID] = d.now()
	return true
}

// Unsubscribe reports whether the chat was subscribed.
func (d *AlertDispatcher) Unsubscribe(chatID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.subs[chatID]; !ok {
		return false
	}
	delete(d.subs, chatID)
	return true
}

func (d *AlertDispatcher) Subscription(chatID int64) (since time.Time, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	since, ok = d.subs[chatID]
	return since, ok
}

func (d *AlertDispatcher) SubscriberCount() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// NotifyWatchlist sends the digest to every subscriber. Chats that blocked
// the bot are dropped; other send failures are joined into the result.
func (d *AlertDispatcher) NotifyWatchlist(ctx context.Context, entries []service.WatchlistEntry) error {
	if d == nil || d.sender == nil || len(entries) == 0 {
		return nil
	}
	chatIDs := d.chatIDs()
	if len(chatIDs) == 0 {
		return nil
	}

	title := "Watchlist after the close, " + markethours.Today(d.now()).Format("Mon 02 Jan")
	msg := truncate(formatWatchlist(title, entries))

	var errs []error
	for _, id := range chatIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := d.sender.Send(&tele.Chat{ID: id}, msg)
		switch {
		case err == nil:
		case errors.Is(err, tele.ErrBlockedByUser):
			d.Unsubscribe(id)
			log.Info().Int64("chat", id).Msg("bot blocked, digest subscription dropped")
		default:
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed sending %d digests: %w", len(errs), errors.Join(errs...))
	}
	return nil
}

func (d *AlertDispatcher) chatIDs() []int64 {
	d.mu.RLock()
	ids := make([]int64, 0, len(d.subs))
	for id := range d.subs {
		ids = append(ids, id)
	}
	d.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

func parseAlertMode(args []string) (alertMode, error) {
	if len(args) == 0 {
		return alertStatus, nil
	}
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "on":
		return alertOn, nil
	case "off":
		return alertOff, nil
	case "status":
		return alertStatus, nil
	}
	return alertStatus, fmt.Errorf("unknown alerts mode %q", args[0])
}
