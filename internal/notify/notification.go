package notify

import "time"

// PayloadTypeWeatherUpdate marks notifications owned by the weather
// scheduler; anything else passes through the handler untouched.
const PayloadTypeWeatherUpdate = "weather_update"

// Payload is the machine-readable data attached to a notification.
// NeedsFetch marks a raw daily trigger whose content is placeholder only;
// FromHandler marks a replacement the scheduler itself posted.
type Payload struct {
	Type        string `json:"type"`
	NeedsFetch  bool   `json:"needsFetch"`
	FromHandler bool   `json:"fromHandler"`
}

// Content is the user-visible part of a notification.
type Content struct {
	Title   string  `json:"title"`
	Body    string  `json:"body"`
	Sound   bool    `json:"sound"`
	Payload Payload `json:"data"`
}

// DailyTrigger fires every day at the given local time.
type DailyTrigger struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Notification is a local notification. A nil Trigger means "deliver
// immediately".
type Notification struct {
	Identifier string        `json:"identifier"`
	Content    Content       `json:"content"`
	Trigger    *DailyTrigger `json:"trigger,omitempty"`
}

// Delivery is the receipt recorded when a notification is handed to the
// delivery channel.
type Delivery struct {
	Receipt    string    `json:"receipt"`
	Identifier string    `json:"identifier"`
	At         time.Time `json:"at"`
}

// FireEvent is one occurrence of a trigger activating.
type FireEvent struct {
	Identifier string
	FiredAt    time.Time
	Payload    Payload
}

// Directive is the handler's decision for a fired notification, returned to
// the presentation layer.
type Directive struct {
	ShowBanner bool `json:"shouldShowBanner"`
	ShowList   bool `json:"shouldShowList"`
	PlaySound  bool `json:"shouldPlaySound"`
	SetBadge   bool `json:"shouldSetBadge"`
}

var (
	// DirectiveShow displays the notification with sound.
	DirectiveShow = Directive{ShowBanner: true, ShowList: true, PlaySound: true}
	// DirectiveSuppress hides the notification entirely.
	DirectiveSuppress = Directive{}
)

// Suppressed reports whether the directive hides the notification.
func (d Directive) Suppressed() bool {
	return !d.ShowBanner && !d.ShowList
}

// TimeOfDay is the persisted daily schedule.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Handler decides what happens when a notification fires.
type Handler func(ev FireEvent) Directive

// Center is the platform notification subsystem: it schedules, cancels and
// lists local notifications and routes fire events through the registered
// handler.
type Center interface {
	Schedule(n Notification) error
	CancelScheduled(identifier string) error
	CancelAll() error
	Scheduled() []Notification
	Delivered() []Delivery
	PermissionGranted() bool
}
