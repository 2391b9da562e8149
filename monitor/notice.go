package monitor

import (
	"fmt"
	"time"
)

// DelayNotice is the transient result of a status check: the next departure
// of the watched line is behind schedule. It exists only long enough to be
// formatted into the outbound message.
type DelayNotice struct {
	Line      string
	TripID    string
	StopID    string
	StopName  string
	Scheduled time.Time
	Delay     time.Duration
	Reason    string
}

// Message renders the notice as the Discord message content. Sub-minute
// delays are reported in seconds so they never read as "0 min".
func (n *DelayNotice) Message() string {
	var delay string
	if n.Delay < time.Minute {
		delay = fmt.Sprintf("%d s", int(n.Delay/time.Second))
	} else {
		delay = fmt.Sprintf("%d min", int(n.Delay.Round(time.Minute)/time.Minute))
	}
	where := n.StopName
	if where == "" {
		where = n.StopID
	}
	msg := fmt.Sprintf("🚆 %s delayed by %s at %s (scheduled %s)",
		n.Line, delay, where, n.Scheduled.Format("15:04"))
	if n.Reason != "" {
		msg += fmt.Sprintf(", reason: %s", n.Reason)
	}
	return msg
}
