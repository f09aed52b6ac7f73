package tui

type eventType int

const (
	eventTypeSpin eventType = iota
	eventTypeBar
	eventTypeText
	eventTypeDone
)

type Event struct {
	eventType eventType
	text      string
	percent   float64
}

func NewEventSpin(text string) Event {
	return Event{
		eventType: eventTypeSpin,
		text:      text,
	}
}

// NewEventBar takes percent in 0..100 as the service reports it.
func NewEventBar(text string, percent int) Event {
	return Event{
		eventType: eventTypeBar,
		text:      text,
		percent:   float64(percent) / 100,
	}
}

func NewEventText(text string) Event {
	return Event{
		eventType: eventTypeText,
		text:      text,
	}
}

// NewEventDone shows a final line and stops the display.
func NewEventDone(text string) Event {
	return Event{
		eventType: eventTypeDone,
		text:      text,
	}
}

func (e Event) Text() string {
	return e.text
}

func (e Event) Percent() float64 {
	return e.percent
}
