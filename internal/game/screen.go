package game

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/samdwyer/battleclock/internal/dex"
)

// ScreenMode is the currently displayed screen.
type ScreenMode int

const (
	// ScreenBattle - the battle scene with the clock
	ScreenBattle ScreenMode = iota
	// ScreenDay - the day-of-week view
	ScreenDay
	// ScreenDetail - the challenger's descriptive entry
	ScreenDetail
)

// String returns a human-readable screen name.
func (m ScreenMode) String() string {
	switch m {
	case ScreenBattle:
		return "battle"
	case ScreenDay:
		return "day"
	case ScreenDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// DetailDisplayDuration is how long a loaded entry stays up before the
// battle screen returns.
const DetailDisplayDuration = 5000 * time.Millisecond

// Detail screen texts.
const (
	DetailPlaceholder = "Loading Pokedex Entry..."
	DetailLoading     = "LOADING..."
	DetailNoEntry     = "ERROR: Could not fetch entry."
	DetailFailed      = "ERROR: Network or API issue."
)

// DetailFetcher starts an asynchronous entry fetch. The result must be
// handed back to Screens.DetailReady on the loop goroutine.
type DetailFetcher interface {
	FetchDetail(name string)
}

// Screens is the screen controller. It routes activations to the session and
// tracks detail fetches so a name is never requested twice at once.
type Screens struct {
	mode     ScreenMode
	text     string
	subject  string
	loaded   bool
	loadedAt time.Time
	inFlight map[string]bool

	fetcher DetailFetcher
	log     logr.Logger
}

// NewScreens creates a controller showing the battle screen.
func NewScreens(fetcher DetailFetcher, log logr.Logger) *Screens {
	return &Screens{
		mode:     ScreenBattle,
		text:     DetailPlaceholder,
		inFlight: make(map[string]bool),
		fetcher:  fetcher,
		log:      log,
	}
}

// Activate handles a click or confirm key. On the battle screen it requests a
// turn; on the day screen it opens the challenger's entry; on the detail
// screen it returns to battle.
func (s *Screens) Activate(ctx context.Context, now time.Time, session *Session) {
	switch s.mode {
	case ScreenBattle:
		session.Trigger(ctx, now)
	case ScreenDay:
		s.openDetail(session)
	case ScreenDetail:
		s.toBattle()
	}
}

// Cycle moves between the battle and day screens. Leaving the detail screen
// returns to battle.
func (s *Screens) Cycle() {
	switch s.mode {
	case ScreenBattle:
		s.mode = ScreenDay
	default:
		s.toBattle()
	}
	s.log.V(1).Info("screen changed", "mode", s.mode.String())
}

func (s *Screens) toBattle() {
	s.mode = ScreenBattle
	s.text = DetailPlaceholder
	s.subject = ""
	s.loaded = false
}

func (s *Screens) openDetail(session *Session) {
	def := session.Challenger()
	if def == nil {
		return
	}
	s.mode = ScreenDetail
	s.subject = def.Name
	s.text = DetailLoading
	s.loaded = false

	if s.inFlight[def.Name] {
		s.log.V(1).Info("entry fetch already pending", "name", def.Name)
		return
	}
	s.inFlight[def.Name] = true
	s.log.Info("fetching entry", "name", def.Name)
	if s.fetcher != nil {
		s.fetcher.FetchDetail(def.Name)
	}
}

// DetailReady applies a finished fetch. A result for a name the detail
// screen no longer shows is discarded.
func (s *Screens) DetailReady(name, text string, err error, now time.Time) {
	delete(s.inFlight, name)
	if s.mode != ScreenDetail || s.subject != name {
		s.log.V(1).Info("entry result discarded", "name", name)
		return
	}

	switch {
	case err == nil:
		s.text = text
	case errors.Is(err, dex.ErrNoEntry):
		s.text = DetailNoEntry
	default:
		s.text = DetailFailed
	}
	s.loaded = true
	s.loadedAt = now
}

// Update returns to the battle screen once a loaded entry has been shown
// for DetailDisplayDuration.
func (s *Screens) Update(now time.Time) {
	if s.mode == ScreenDetail && s.loaded && now.Sub(s.loadedAt) >= DetailDisplayDuration {
		s.toBattle()
		s.log.V(1).Info("screen changed", "mode", s.mode.String(), "reason", "detail timeout")
	}
}

// Mode returns the current screen.
func (s *Screens) Mode() ScreenMode { return s.mode }

// Text returns the detail screen body.
func (s *Screens) Text() string { return s.text }

// Loading reports whether the detail screen is waiting for its entry.
func (s *Screens) Loading() bool { return s.mode == ScreenDetail && !s.loaded }

// Subject returns the name the detail screen describes.
func (s *Screens) Subject() string { return s.subject }

// Fetching reports whether a fetch for name is outstanding.
func (s *Screens) Fetching(name string) bool { return s.inFlight[name] }
