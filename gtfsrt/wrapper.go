package gtfsrt

import (
	"context"
	"time"
)

// Alert is a parsed GTFS-RT service alert used as the human-readable reason
// attached to a delay notice.
type Alert struct {
	Header      string
	Description string
	RouteIDs    []string
	TripIDs     []string
	StopIDs     []string
}

// Wrapper stores GTFS-Realtime data in memory for fast lookups
type Wrapper struct {
	feedURL   string
	alertsURL string
	client    *Client

	trips           map[string]struct{}
	headerTimestamp int64

	tripRoute   map[string]string           // trip_id -> route_id
	onwardStops map[string][]string         // trip_id -> ordered stop_ids
	delayByStop map[string]map[string]int32 // trip_id -> stop_id -> departure delay seconds
	etdByStop   map[string]map[string]int64 // trip_id -> stop_id -> departure epoch

	alerts        []Alert
	alertsByRoute map[string][]int // route_id -> indices in alerts slice
	alertsByTrip  map[string][]int // trip_id -> indices
}

// NewWrapper creates a wrapper over a trip-updates feed and an optional
// service-alerts feed.
func NewWrapper(client *Client, feedURL, alertsURL string) *Wrapper {
	w := &Wrapper{
		feedURL:   feedURL,
		alertsURL: alertsURL,
		client:    client,
	}
	w.reset()
	return w
}

func (w *Wrapper) reset() {
	w.trips = map[string]struct{}{}
	w.tripRoute = map[string]string{}
	w.onwardStops = map[string][]string{}
	w.delayByStop = map[string]map[string]int32{}
	w.etdByStop = map[string]map[string]int64{}
	w.alerts = nil
	w.alertsByRoute = map[string][]int{}
	w.alertsByTrip = map[string][]int{}
	w.headerTimestamp = 0
}

// Refresh fetches and parses the configured GTFS-RT feeds. A fetch or parse
// failure empties the wrapper and is returned to the caller: stale realtime
// data must never produce a notification.
func (w *Wrapper) Refresh(ctx context.Context) error {
	w.reset()

	fm, err := w.client.Fetch(ctx, w.feedURL)
	if err != nil {
		return err
	}
	if fm != nil {
		if fm.Header != nil && fm.Header.Timestamp != nil {
			w.headerTimestamp = int64(*fm.Header.Timestamp)
		}
		for _, e := range fm.Entity {
			if e.TripUpdate == nil || e.TripUpdate.Trip == nil || e.TripUpdate.Trip.TripId == nil {
				continue
			}
			tripID := *e.TripUpdate.Trip.TripId
			w.trips[tripID] = struct{}{}
			if e.TripUpdate.Trip.RouteId != nil {
				w.tripRoute[tripID] = *e.TripUpdate.Trip.RouteId
			}
			if len(e.TripUpdate.StopTimeUpdate) == 0 {
				continue
			}
			w.onwardStops[tripID] = make([]string, 0, len(e.TripUpdate.StopTimeUpdate))
			w.delayByStop[tripID] = map[string]int32{}
			w.etdByStop[tripID] = map[string]int64{}
			for _, stu := range e.TripUpdate.StopTimeUpdate {
				if stu.StopId == nil {
					continue
				}
				sid := *stu.StopId
				w.onwardStops[tripID] = append(w.onwardStops[tripID], sid)
				if stu.Departure != nil {
					if stu.Departure.Delay != nil {
						w.delayByStop[tripID][sid] = *stu.Departure.Delay
					}
					if stu.Departure.Time != nil {
						w.etdByStop[tripID][sid] = *stu.Departure.Time
					}
				}
			}
		}
	}

	am, err := w.client.Fetch(ctx, w.alertsURL)
	if err != nil {
		return err
	}
	if am != nil {
		for _, e := range am.Entity {
			if e.Alert == nil {
				continue
			}
			a := Alert{}
			if e.Alert.HeaderText != nil && len(e.Alert.HeaderText.Translation) > 0 {
				a.Header = e.Alert.HeaderText.Translation[0].GetText()
			}
			if e.Alert.DescriptionText != nil && len(e.Alert.DescriptionText.Translation) > 0 {
				a.Description = e.Alert.DescriptionText.Translation[0].GetText()
			}
			for _, ie := range e.Alert.InformedEntity {
				if ie == nil {
					continue
				}
				if ie.RouteId != nil {
					a.RouteIDs = append(a.RouteIDs, *ie.RouteId)
				}
				if ie.Trip != nil && ie.Trip.TripId != nil {
					a.TripIDs = append(a.TripIDs, *ie.Trip.TripId)
				}
				if ie.StopId != nil {
					a.StopIDs = append(a.StopIDs, *ie.StopId)
				}
			}
			i := len(w.alerts)
			w.alerts = append(w.alerts, a)
			for _, r := range a.RouteIDs {
				w.alertsByRoute[r] = append(w.alertsByRoute[r], i)
			}
			for _, tr := range a.TripIDs {
				w.alertsByTrip[tr] = append(w.alertsByTrip[tr], i)
			}
		}
	}

	if w.headerTimestamp == 0 {
		w.headerTimestamp = time.Now().Unix()
	}
	return nil
}

// Trips returns all trip_ids present in the trip-updates feed.
func (w *Wrapper) Trips() []string {
	ids := make([]string, 0, len(w.trips))
	for id := range w.trips {
		ids = append(ids, id)
	}
	return ids
}

// RouteForTrip returns the route_id the feed reports for a trip, or "".
func (w *Wrapper) RouteForTrip(tripID string) string { return w.tripRoute[tripID] }

// OnwardStops returns the ordered stop_ids of a trip's stop time updates.
func (w *Wrapper) OnwardStops(tripID string) []string { return w.onwardStops[tripID] }

// DepartureDelay returns the reported departure delay in seconds at a stop.
func (w *Wrapper) DepartureDelay(tripID, stopID string) (int32, bool) {
	if m := w.delayByStop[tripID]; m != nil {
		d, ok := m[stopID]
		return d, ok
	}
	return 0, false
}

// ExpectedDeparture returns the estimated departure epoch at a stop, or 0.
func (w *Wrapper) ExpectedDeparture(tripID, stopID string) int64 {
	if m := w.etdByStop[tripID]; m != nil {
		return m[stopID]
	}
	return 0
}

// Reason returns the first service alert text matching the trip or its
// route, preferring the description over the header. Empty when no alert
// applies.
func (w *Wrapper) Reason(tripID, routeID string) string {
	idxs := w.alertsByTrip[tripID]
	if len(idxs) == 0 {
		idxs = w.alertsByRoute[routeID]
	}
	if len(idxs) == 0 {
		return ""
	}
	a := w.alerts[idxs[0]]
	if a.Description != "" {
		return a.Description
	}
	return a.Header
}

// Timestamp returns the feed header timestamp of the last refresh.
func (w *Wrapper) Timestamp() int64 { return w.headerTimestamp }
