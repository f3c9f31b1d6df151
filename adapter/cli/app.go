package cli

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/app"
	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
)

// ErrNotInitialized is returned by commands run without a container.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	Container   *app.Container
	Coordinator *application.Coordinator
	// Principal is the caller every command acts as.
	Principal identity.Principal
	Location  *time.Location
}

// NewApp creates a CLI application backed by container.
func NewApp(container *app.Container, principal identity.Principal) *App {
	return &App{
		Container:   container,
		Coordinator: container.Coordinator,
		Principal:   principal,
		Location:    container.Config.Location(),
	}
}

// SetPrincipal changes the acting identity.
func (a *App) SetPrincipal(p identity.Principal) {
	a.Principal = p
}

// ParseSlot reads a slot as RFC 3339 or as "2006-01-02 15:04" in the
// scheduling time zone.
func (a *App) ParseSlot(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02 15:04", s, loc)
}

// current is the global CLI application instance
var current *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	current = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return current
}

// RequireApp returns the application or ErrNotInitialized.
func RequireApp() (*App, error) {
	if current == nil || current.Coordinator == nil {
		return nil, ErrNotInitialized
	}
	return current, nil
}
