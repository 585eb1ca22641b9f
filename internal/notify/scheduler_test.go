package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"weatherassistant/internal/city"
	"weatherassistant/internal/prefs"
	"weatherassistant/internal/weather"
)

type fakeCenter struct {
	permission  bool
	scheduled   map[string]Notification
	immediate   []Notification
	cancelled   []string
	cancelAlls  int
	scheduleErr error
}

func newFakeCenter() *fakeCenter {
	return &fakeCenter{
		permission: true,
		scheduled:  make(map[string]Notification),
	}
}

func (c *fakeCenter) Schedule(n Notification) error {
	if c.scheduleErr != nil {
		return c.scheduleErr
	}
	if n.Trigger == nil {
		c.immediate = append(c.immediate, n)
		return nil
	}
	c.scheduled[n.Identifier] = n
	return nil
}

func (c *fakeCenter) CancelScheduled(identifier string) error {
	c.cancelled = append(c.cancelled, identifier)
	delete(c.scheduled, identifier)
	return nil
}

func (c *fakeCenter) CancelAll() error {
	c.cancelAlls++
	c.scheduled = make(map[string]Notification)
	return nil
}

func (c *fakeCenter) Scheduled() []Notification {
	list := make([]Notification, 0, len(c.scheduled))
	for _, n := range c.scheduled {
		list = append(list, n)
	}
	return list
}

func (c *fakeCenter) Delivered() []Delivery { return nil }

func (c *fakeCenter) PermissionGranted() bool { return c.permission }

type fakeClient struct {
	report *weather.Report
	err    error
	calls  int
	coords weather.Coordinates
	hook   func()
}

func (f *fakeClient) Predict(ctx context.Context, coords weather.Coordinates) (*weather.Report, error) {
	f.calls++
	f.coords = coords
	if f.hook != nil {
		hook := f.hook
		f.hook = nil
		hook()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeClient) PredictManual(ctx context.Context, features weather.Features) (*weather.Report, error) {
	return f.Predict(ctx, weather.Coordinates{})
}

func (f *fakeClient) Health(ctx context.Context) (bool, error) { return true, nil }

type fakeLocator struct {
	coords *weather.Coordinates
	err    error
	calls  int
}

func (f *fakeLocator) Locate(ctx context.Context) (*weather.Coordinates, error) {
	f.calls++
	return f.coords, f.err
}

func ankaraReport() *weather.Report {
	return &weather.Report{
		Success: true,
		Summary: "Clear, 21°C",
		Meta:    weather.Meta{LocationName: "Ankara"},
	}
}

type testEnv struct {
	sched   *Scheduler
	center  *fakeCenter
	client  *fakeClient
	locator *fakeLocator
	store   *prefs.MemStore
}

func newTestEnv() *testEnv {
	center := newFakeCenter()
	client := &fakeClient{report: ankaraReport()}
	locator := &fakeLocator{coords: &weather.Coordinates{Latitude: 39.93, Longitude: 32.86}}
	store := prefs.NewMemStore()

	sched := NewScheduler(center, client, city.NewService(store, ""), locator, store)
	// Keep the guard set until the test is over so timing cannot leak in.
	sched.after = func(d time.Duration, f func()) {}

	return &testEnv{sched: sched, center: center, client: client, locator: locator, store: store}
}

func rawFire() FireEvent {
	return FireEvent{
		Identifier: TriggerIdentifier,
		FiredAt:    time.Now(),
		Payload:    Payload{Type: PayloadTypeWeatherUpdate, NeedsFetch: true},
	}
}

func TestArmPersistsSchedule(t *testing.T) {
	env := newTestEnv()

	if err := env.sched.Arm(8, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, ok, err := env.store.Get(prefs.KeyNotificationTime)
	if err != nil || !ok {
		t.Fatalf("schedule not persisted (ok=%v err=%v)", ok, err)
	}
	var tod TimeOfDay
	if err := json.Unmarshal([]byte(raw), &tod); err != nil {
		t.Fatalf("failed to parse persisted schedule: %v", err)
	}
	if tod.Hour != 8 || tod.Minute != 0 {
		t.Fatalf("expected 08:00, got %02d:%02d", tod.Hour, tod.Minute)
	}

	trigger, ok := env.center.scheduled[TriggerIdentifier]
	if !ok {
		t.Fatal("daily trigger not scheduled")
	}
	if trigger.Trigger == nil || trigger.Trigger.Hour != 8 || trigger.Trigger.Minute != 0 {
		t.Fatalf("unexpected trigger time: %+v", trigger.Trigger)
	}
	if !trigger.Content.Payload.NeedsFetch {
		t.Fatal("raw trigger must carry needsFetch")
	}
}

func TestArmValidatesRange(t *testing.T) {
	env := newTestEnv()

	if err := env.sched.Arm(24, 0); err == nil {
		t.Fatal("expected error for hour 24")
	}
	if err := env.sched.Arm(8, 60); err == nil {
		t.Fatal("expected error for minute 60")
	}
	if len(env.center.scheduled) != 0 {
		t.Fatal("nothing should be scheduled after invalid input")
	}
}

func TestArmScheduleFailureLeavesStoreUntouched(t *testing.T) {
	env := newTestEnv()
	env.center.scheduleErr = errors.New("scheduler backend down")

	if err := env.sched.Arm(8, 0); err == nil {
		t.Fatal("expected scheduling error")
	}
	if env.sched.Enabled() {
		t.Fatal("enabled flag must not be set when scheduling fails")
	}
	if _, ok, _ := env.store.Get(prefs.KeyNotificationTime); ok {
		t.Fatal("schedule must not be persisted when scheduling fails")
	}
}

func TestArmPermissionDenied(t *testing.T) {
	env := newTestEnv()
	env.center.permission = false

	err := env.sched.Arm(8, 0)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestArmReplacesExistingTrigger(t *testing.T) {
	env := newTestEnv()

	if err := env.sched.Arm(8, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.sched.Arm(9, 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(env.center.scheduled) != 1 {
		t.Fatalf("expected exactly one trigger, got %d", len(env.center.scheduled))
	}
	trigger := env.center.scheduled[TriggerIdentifier]
	if trigger.Trigger.Hour != 9 || trigger.Trigger.Minute != 30 {
		t.Fatalf("expected 09:30, got %02d:%02d", trigger.Trigger.Hour, trigger.Trigger.Minute)
	}
}

func TestDisarmIsIdempotent(t *testing.T) {
	env := newTestEnv()

	if err := env.sched.Arm(8, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := env.sched.Disarm(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.center.Scheduled()) != 0 {
		t.Fatal("expected no scheduled notifications after disarm")
	}
	if env.sched.Enabled() {
		t.Fatal("enabled flag should be false after disarm")
	}

	// Disarming with nothing scheduled is a no-op, not an error.
	if err := env.sched.Disarm(); err != nil {
		t.Fatalf("second disarm failed: %v", err)
	}
}

func TestHandleFireSubstitutesAndSuppresses(t *testing.T) {
	env := newTestEnv()
	if err := env.sched.Arm(8, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := env.sched.HandleFire(context.Background(), rawFire())

	if !d.Suppressed() {
		t.Fatal("raw fire must be suppressed")
	}
	if env.client.calls != 1 {
		t.Fatalf("expected one weather fetch, got %d", env.client.calls)
	}
	if len(env.center.immediate) != 1 {
		t.Fatalf("expected one replacement notification, got %d", len(env.center.immediate))
	}

	repl := env.center.immediate[0]
	if !repl.Content.Payload.FromHandler || repl.Content.Payload.NeedsFetch {
		t.Fatalf("replacement payload markers wrong: %+v", repl.Content.Payload)
	}
	if !strings.Contains(repl.Content.Title, "Ankara") {
		t.Fatalf("expected title to name the place, got %q", repl.Content.Title)
	}
	if repl.Content.Body != "Clear, 21°C" {
		t.Fatalf("expected summary body, got %q", repl.Content.Body)
	}

	// Tomorrow's trigger is re-armed at the same time.
	trigger, ok := env.center.scheduled[TriggerIdentifier]
	if !ok {
		t.Fatal("daily trigger was not re-armed")
	}
	if trigger.Trigger.Hour != 8 || trigger.Trigger.Minute != 0 {
		t.Fatalf("re-armed at %02d:%02d, want 08:00", trigger.Trigger.Hour, trigger.Trigger.Minute)
	}
}

func TestHandleFireDuplicateWithinCooldown(t *testing.T) {
	env := newTestEnv()

	first := env.sched.HandleFire(context.Background(), rawFire())
	second := env.sched.HandleFire(context.Background(), rawFire())

	if !first.Suppressed() || !second.Suppressed() {
		t.Fatal("both directives should suppress the raw fire")
	}
	if env.client.calls != 1 {
		t.Fatalf("duplicate fire must not refetch; got %d calls", env.client.calls)
	}
	if len(env.center.immediate) != 1 {
		t.Fatalf("duplicate fire must not post again; got %d notifications", len(env.center.immediate))
	}
}

func TestHandleFireReprocessesAfterCooldown(t *testing.T) {
	env := newTestEnv()

	var clearFn func()
	env.sched.after = func(d time.Duration, f func()) { clearFn = f }

	base := time.Now()
	env.sched.now = func() time.Time { return base }
	env.sched.HandleFire(context.Background(), rawFire())
	clearFn()

	env.sched.now = func() time.Time { return base.Add(6 * time.Second) }
	env.sched.HandleFire(context.Background(), rawFire())

	if env.client.calls != 2 {
		t.Fatalf("fire outside the cooldown window should process; got %d calls", env.client.calls)
	}
}

func TestHandleFireDuplicateDuringSlowFetch(t *testing.T) {
	env := newTestEnv()

	base := time.Now()
	env.sched.now = func() time.Time { return base }

	// A second delivery of the same fire arrives while the first is still
	// fetching, after the cooldown has already elapsed. One notification per
	// scheduled time, no matter how slow the fetch is.
	env.client.hook = func() {
		env.sched.now = func() time.Time { return base.Add(6 * time.Second) }
		if d := env.sched.HandleFire(context.Background(), rawFire()); !d.Suppressed() {
			t.Error("in-flight duplicate must be suppressed")
		}
	}

	env.sched.HandleFire(context.Background(), rawFire())

	if env.client.calls != 1 {
		t.Fatalf("expected one weather fetch, got %d", env.client.calls)
	}
	if len(env.center.immediate) != 1 {
		t.Fatalf("expected one replacement notification, got %d", len(env.center.immediate))
	}
}

func TestHandleFireFromHandlerShows(t *testing.T) {
	env := newTestEnv()

	d := env.sched.HandleFire(context.Background(), FireEvent{
		Identifier: "weather-update-123",
		Payload:    Payload{Type: PayloadTypeWeatherUpdate, FromHandler: true},
	})

	if d.Suppressed() {
		t.Fatal("replacement notifications must be shown")
	}
	if !d.PlaySound {
		t.Fatal("replacement notifications play sound")
	}
	if env.client.calls != 0 || env.locator.calls != 0 {
		t.Fatal("no network or location calls expected")
	}
}

func TestHandleFireResolvedEventShows(t *testing.T) {
	env := newTestEnv()

	d := env.sched.HandleFire(context.Background(), FireEvent{
		Identifier: TriggerIdentifier,
		Payload:    Payload{Type: PayloadTypeWeatherUpdate, NeedsFetch: false},
	})

	if d.Suppressed() {
		t.Fatal("already-resolved events must be shown")
	}
	if env.client.calls != 0 {
		t.Fatal("no fetch expected for resolved events")
	}
}

func TestHandleFireLocationUnavailable(t *testing.T) {
	env := newTestEnv()
	env.locator.coords = nil

	d := env.sched.HandleFire(context.Background(), rawFire())

	if !d.Suppressed() {
		t.Fatal("raw fire must be suppressed")
	}
	if env.client.calls != 0 {
		t.Fatal("no weather fetch should be attempted without a location")
	}
	if len(env.center.immediate) != 1 {
		t.Fatalf("expected one fallback notification, got %d", len(env.center.immediate))
	}
	fallback := env.center.immediate[0]
	if !strings.Contains(fallback.Content.Body, "location") {
		t.Fatalf("fallback should mention the location problem, got %q", fallback.Content.Body)
	}
	if !fallback.Content.Payload.FromHandler {
		t.Fatal("fallback must carry the fromHandler marker")
	}
}

func TestHandleFireFetchFailure(t *testing.T) {
	env := newTestEnv()
	env.client.err = weather.ErrNetwork

	d := env.sched.HandleFire(context.Background(), rawFire())

	if !d.Suppressed() {
		t.Fatal("raw fire must be suppressed even on failure")
	}
	if len(env.center.immediate) != 1 {
		t.Fatalf("expected one fallback notification, got %d", len(env.center.immediate))
	}
	if !strings.Contains(env.center.immediate[0].Content.Body, "could not be fetched") {
		t.Fatalf("unexpected fallback body: %q", env.center.immediate[0].Content.Body)
	}
}

func TestHandleFirePrefersSelectedCity(t *testing.T) {
	env := newTestEnv()

	cities := city.NewService(env.store, "")
	istanbul, ok := city.Find("İstanbul", "Türkiye")
	if !ok {
		t.Fatal("catalog is missing İstanbul")
	}
	if err := cities.SaveSelected(&istanbul); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.sched.HandleFire(context.Background(), rawFire())

	if env.locator.calls != 0 {
		t.Fatal("locator must not be used when a city is selected")
	}
	if env.client.coords.Latitude != istanbul.Latitude || env.client.coords.Longitude != istanbul.Longitude {
		t.Fatalf("expected fetch for selected city coordinates, got %+v", env.client.coords)
	}
}

func TestHandleFireCancelsRawTriggerBeforePosting(t *testing.T) {
	env := newTestEnv()
	if err := env.sched.Arm(8, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.sched.HandleFire(context.Background(), rawFire())

	found := false
	for _, id := range env.center.cancelled {
		if id == TriggerIdentifier {
			found = true
		}
	}
	if !found {
		t.Fatal("fired raw trigger was not cancelled")
	}
}

func TestGuardClearsAfterDelay(t *testing.T) {
	env := newTestEnv()

	var clearFn func()
	env.sched.after = func(d time.Duration, f func()) { clearFn = f }

	base := time.Now()
	env.sched.now = func() time.Time { return base }
	env.sched.HandleFire(context.Background(), rawFire())
	if clearFn == nil {
		t.Fatal("guard clear was not scheduled")
	}
	clearFn()

	// Guard gone and cooldown elapsed, so the same identifier processes
	// again.
	env.sched.now = func() time.Time { return base.Add(6 * time.Second) }
	env.sched.HandleFire(context.Background(), rawFire())
	if env.client.calls != 2 {
		t.Fatalf("expected reprocessing after guard clear, got %d calls", env.client.calls)
	}
}
