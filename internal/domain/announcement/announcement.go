package announcement

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested announcement does not exist.
var ErrNotFound = errors.New("announcement not found")

// Announcement is a site-wide banner shown to shoppers while active and
// inside its optional display window.
type Announcement struct {
	ID        string
	Title     string
	Body      string
	Active    bool
	StartsAt  *time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
}

// Visible reports whether the announcement should be shown at time t.
func (a *Announcement) Visible(t time.Time) bool {
	if !a.Active {
		return false
	}
	if a.StartsAt != nil && t.Before(*a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && t.After(*a.EndsAt) {
		return false
	}
	return true
}

// Repository defines persistence operations for announcements.
type Repository interface {
	ListActive(ctx context.Context, now time.Time) ([]Announcement, error)
	List(ctx context.Context) ([]Announcement, error)
	Create(ctx context.Context, a *Announcement) error
	Update(ctx context.Context, a *Announcement) error
	Delete(ctx context.Context, id string) error
}
