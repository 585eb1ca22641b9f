package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"weatherassistant/internal/city"
	"weatherassistant/internal/location"
	"weatherassistant/internal/prefs"
	"weatherassistant/internal/weather"
)

// TriggerIdentifier is the reserved identity of the recurring daily trigger.
// At most one trigger with this identity exists at a time.
const TriggerIdentifier = "weather-daily-trigger"

const (
	// A fire for an identifier processed this recently is a duplicate
	// delivery and gets suppressed, even after the guard has cleared.
	defaultCooldown = 5 * time.Second
	// The guard is cleared this long after a cycle completes.
	defaultClearDelay = 1 * time.Second
)

// ErrPermissionDenied is returned by Arm and SendTest when no delivery
// channel is available.
var ErrPermissionDenied = errors.New("notify: notification permission not granted")

// Scheduler owns the daily trigger lifecycle: it arms the recurring trigger
// and, on each fire, substitutes a replacement notification carrying live
// weather content while suppressing the raw placeholder.
type Scheduler struct {
	center  Center
	client  weather.Client
	cities  *city.Service
	locator location.Provider
	prefs   prefs.Store

	cooldown   time.Duration
	clearDelay time.Duration
	now        func() time.Time
	after      func(d time.Duration, f func())

	// processing guard; reset on every cold start by construction.
	mu           sync.Mutex
	processingID string
	lastID       string
	startedAt    time.Time
}

func NewScheduler(
	center Center,
	client weather.Client,
	cities *city.Service,
	locator location.Provider,
	store prefs.Store,
) *Scheduler {
	return &Scheduler{
		center:     center,
		client:     client,
		cities:     cities,
		locator:    locator,
		prefs:      store,
		cooldown:   defaultCooldown,
		clearDelay: defaultClearDelay,
		now:        time.Now,
		after:      func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Arm schedules the daily trigger at the given local time, replacing any
// previous trigger with the reserved identity, and persists the schedule.
func (s *Scheduler) Arm(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("hour out of range: %d", hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("minute out of range: %d", minute)
	}
	if !s.center.PermissionGranted() {
		return ErrPermissionDenied
	}

	// Replace the reserved trigger and sweep any stale variants of it.
	for _, n := range s.center.Scheduled() {
		if strings.HasPrefix(n.Identifier, TriggerIdentifier) {
			if err := s.center.CancelScheduled(n.Identifier); err != nil {
				log.Printf("scheduler: cancelling stale trigger %s: %v", n.Identifier, err)
			}
		}
	}

	raw, err := json.Marshal(TimeOfDay{Hour: hour, Minute: minute})
	if err != nil {
		return err
	}
	// Schedule first: if it fails the store must not claim a trigger is armed.
	if err := s.center.Schedule(s.rawTrigger(hour, minute)); err != nil {
		return err
	}
	if err := s.prefs.Set(prefs.KeyNotificationTime, string(raw)); err != nil {
		return fmt.Errorf("persisting schedule: %w", err)
	}
	if err := s.prefs.Set(prefs.KeyNotificationEnabled, "true"); err != nil {
		return fmt.Errorf("persisting enabled flag: %w", err)
	}
	return nil
}

// Disarm cancels every scheduled notification and persists the disabled
// flag. Calling it when nothing is scheduled is a no-op.
func (s *Scheduler) Disarm() error {
	if err := s.center.CancelAll(); err != nil {
		return err
	}
	if err := s.prefs.Set(prefs.KeyNotificationEnabled, "false"); err != nil {
		// Best effort; the platform-level schedule is already gone.
		log.Printf("scheduler: persisting disabled flag: %v", err)
	}
	return nil
}

// HandleFire is the dedup/substitution state machine invoked for every fire
// event. It returns the directive the presentation layer must apply to the
// raw event. Safe to call twice for the same identifier: a second call while
// the first is still in flight, or within the cooldown window after it,
// does nothing.
func (s *Scheduler) HandleFire(ctx context.Context, ev FireEvent) Directive {
	// Replacements this scheduler generated are final; show them as-is.
	if ev.Payload.FromHandler {
		return DirectiveShow
	}
	// Already-resolved events, e.g. surfacing again after an app restart.
	if !ev.Payload.NeedsFetch {
		return DirectiveShow
	}
	// Not ours.
	if ev.Payload.Type != PayloadTypeWeatherUpdate {
		return DirectiveShow
	}

	now := s.now()
	s.mu.Lock()
	if s.processingID == ev.Identifier {
		s.mu.Unlock()
		// The same fire is still being processed, however long it takes.
		return DirectiveSuppress
	}
	if s.lastID == ev.Identifier && now.Sub(s.startedAt) < s.cooldown {
		s.mu.Unlock()
		// Duplicate delivery shortly after the previous cycle.
		return DirectiveSuppress
	}
	s.processingID = ev.Identifier
	s.lastID = ev.Identifier
	s.startedAt = now
	s.mu.Unlock()

	defer s.after(s.clearDelay, s.clearGuard)

	s.substitute(ctx, ev)
	s.rearm()

	// The raw fire carries placeholder content and must never be shown.
	return DirectiveSuppress
}

// substitute cancels the fired raw trigger and posts one replacement
// notification, falling back to an error message when location or weather
// data cannot be obtained.
func (s *Scheduler) substitute(ctx context.Context, ev FireEvent) {
	// The raw trigger already rang; cancel it before posting the replacement
	// so both are never visible together, then sweep stale fetch triggers.
	if err := s.center.CancelScheduled(ev.Identifier); err != nil {
		log.Printf("scheduler: cancelling fired trigger %s: %v", ev.Identifier, err)
	}
	for _, n := range s.center.Scheduled() {
		if n.Content.Payload.NeedsFetch && strings.HasPrefix(n.Identifier, TriggerIdentifier) {
			if err := s.center.CancelScheduled(n.Identifier); err != nil {
				log.Printf("scheduler: cancelling stale trigger %s: %v", n.Identifier, err)
			}
		}
	}

	coords, placeName, err := s.resolveLocation(ctx)
	if err != nil {
		log.Printf("scheduler: resolving location: %v", err)
	}
	if coords == nil {
		s.postFallback("Could not determine your location. Check the location permission.")
		return
	}

	report, err := s.client.Predict(ctx, *coords)
	if err != nil {
		log.Printf("scheduler: weather fetch failed: %v", err)
		s.postFallback("Weather update could not be fetched.")
		return
	}

	if report.Meta.LocationName != "" {
		placeName = report.Meta.LocationName
	}
	if placeName == "" {
		placeName = "Your location"
	}

	s.post(Notification{
		Identifier: fmt.Sprintf("weather-update-%d", s.now().UnixMilli()),
		Content: Content{
			Title: "Weather - " + placeName,
			Body:  report.Summary,
			Sound: true,
			Payload: Payload{
				Type:        PayloadTypeWeatherUpdate,
				NeedsFetch:  false,
				FromHandler: true,
			},
		},
	})
}

// resolveLocation prefers the selected city over the device locator. A nil
// coordinate with nil error means no location could be determined.
func (s *Scheduler) resolveLocation(ctx context.Context) (*weather.Coordinates, string, error) {
	selected, err := s.cities.Selected()
	if err != nil {
		log.Printf("scheduler: reading selected city: %v", err)
	}
	if selected != nil {
		coords := weather.Coordinates{
			Latitude:  selected.Latitude,
			Longitude: selected.Longitude,
		}
		return &coords, selected.Name, nil
	}

	coords, err := s.locator.Locate(ctx)
	if err != nil {
		return nil, "", err
	}
	return coords, "", nil
}

func (s *Scheduler) postFallback(message string) {
	s.post(Notification{
		Identifier: fmt.Sprintf("weather-error-%d", s.now().UnixMilli()),
		Content: Content{
			Title: "Weather Update",
			Body:  message,
			Sound: true,
			Payload: Payload{
				Type:        PayloadTypeWeatherUpdate,
				NeedsFetch:  false,
				FromHandler: true,
			},
		},
	})
}

func (s *Scheduler) post(n Notification) {
	if err := s.center.Schedule(n); err != nil {
		log.Printf("scheduler: posting %s: %v", n.Identifier, err)
	}
}

// rearm re-reads the persisted schedule and schedules tomorrow's trigger.
// The daily recurrence would usually advance on its own, but the fired
// trigger was cancelled during cleanup, so the schedule is restored here.
// Failures are logged and swallowed: the user already got today's
// notification.
func (s *Scheduler) rearm() {
	raw, ok, err := s.prefs.Get(prefs.KeyNotificationTime)
	if err != nil {
		log.Printf("scheduler: reading schedule: %v", err)
		return
	}
	if !ok {
		return
	}

	var tod TimeOfDay
	if err := json.Unmarshal([]byte(raw), &tod); err != nil {
		log.Printf("scheduler: corrupt schedule entry %q: %v", raw, err)
		return
	}

	if err := s.center.Schedule(s.rawTrigger(tod.Hour, tod.Minute)); err != nil {
		log.Printf("scheduler: re-arm failed: %v", err)
	}
}

func (s *Scheduler) clearGuard() {
	s.mu.Lock()
	s.processingID = ""
	s.mu.Unlock()
}

// rawTrigger builds the daily placeholder trigger. Its content is never
// shown: HandleFire suppresses it and posts a replacement instead.
func (s *Scheduler) rawTrigger(hour, minute int) Notification {
	return Notification{
		Identifier: TriggerIdentifier,
		Content: Content{
			Title: "Weather",
			Body:  "Updating...",
			Sound: false,
			Payload: Payload{
				Type:       PayloadTypeWeatherUpdate,
				NeedsFetch: true,
			},
		},
		Trigger: &DailyTrigger{Hour: hour, Minute: minute},
	}
}

// SendTest posts an immediate notification with live content, bypassing the
// daily trigger.
func (s *Scheduler) SendTest(ctx context.Context) error {
	if !s.center.PermissionGranted() {
		return ErrPermissionDenied
	}

	coords, placeName, err := s.resolveLocation(ctx)
	if err != nil {
		return err
	}
	if coords == nil {
		return errors.New("location unavailable")
	}

	report, err := s.client.Predict(ctx, *coords)
	if err != nil {
		return err
	}

	title := "Weather Update (Test)"
	if report.Meta.LocationName != "" {
		placeName = report.Meta.LocationName
	}
	if placeName != "" {
		title = "Weather - " + placeName + " (Test)"
	}

	s.post(Notification{
		Identifier: fmt.Sprintf("test-notification-%d", s.now().UnixMilli()),
		Content: Content{
			Title: title,
			Body:  report.Summary,
			Sound: true,
			Payload: Payload{
				Type:        PayloadTypeWeatherUpdate,
				NeedsFetch:  false,
				FromHandler: true,
			},
		},
	})
	return nil
}

// Enabled reports the persisted enabled flag.
func (s *Scheduler) Enabled() bool {
	raw, ok, err := s.prefs.Get(prefs.KeyNotificationEnabled)
	if err != nil || !ok {
		return false
	}
	return raw == "true"
}

// ScheduledTime returns the persisted daily schedule, or nil when none is
// set.
func (s *Scheduler) ScheduledTime() (*TimeOfDay, error) {
	raw, ok, err := s.prefs.Get(prefs.KeyNotificationTime)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var tod TimeOfDay
	if err := json.Unmarshal([]byte(raw), &tod); err != nil {
		return nil, fmt.Errorf("corrupt schedule entry: %w", err)
	}
	return &tod, nil
}

// Status is a debugging snapshot of the notification state.
type Status struct {
	PermissionGranted bool           `json:"permissionGranted"`
	ScheduledCount    int            `json:"scheduledCount"`
	Scheduled         []Notification `json:"scheduledNotifications"`
	RecentDeliveries  []Delivery     `json:"recentDeliveries"`
}

func (s *Scheduler) Status() Status {
	scheduled := s.center.Scheduled()
	return Status{
		PermissionGranted: s.center.PermissionGranted(),
		ScheduledCount:    len(scheduled),
		Scheduled:         scheduled,
		RecentDeliveries:  s.center.Delivered(),
	}
}
