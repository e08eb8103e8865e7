package badge

import (
	"fmt"
	"time"
)

var (
	hourClocks     = [12]string{"🕛", "🕐", "🕑", "🕒", "🕓", "🕔", "🕕", "🕖", "🕗", "🕘", "🕙", "🕚"}
	halfHourClocks = [12]string{"🕧", "🕜", "🕝", "🕞", "🕟", "🕠", "🕡", "🕢", "🕣", "🕤", "🕥", "🕦"}
)

// TimeInfo floors t to the half hour and returns the matching clock face and a 12-hour time such as "3:30 PM".
// t is read in its own location.
func TimeInfo(t time.Time) (emoji, clock string) {
	minute := 0
	if t.Minute() >= 30 {
		minute = 30
	}
	rounded := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())

	h := rounded.Hour() % 12
	if minute == 0 {
		emoji = hourClocks[h]
	} else {
		emoji = halfHourClocks[h]
	}
	return emoji, rounded.Format("3:04 PM")
}

// TimeOfDay names the part of the day for hour (0-23).
func TimeOfDay(hour int) string {
	switch {
	case hour < 12:
		return "morning"
	case hour < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

// Caption builds the daylist badge text. An empty phrase falls back to the time of day.
func Caption(t time.Time, phrase string) string {
	emoji, clock := TimeInfo(t)
	if phrase == "" {
		phrase = TimeOfDay(t.Hour()) + " of music"
	}
	return fmt.Sprintf("(It's around %s %s, another %s)", clock, emoji, phrase)
}
