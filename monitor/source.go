package monitor

import (
	"context"
	"time"

	"delaywatch/gtfs"
)

// Source reports the status of the next departure of the watched line.
// A nil notice with a nil error means no upcoming departure was found.
type Source interface {
	LineStatus(ctx context.Context) (*DelayNotice, error)
}

// Notifier delivers a rendered notice to the outside world.
type Notifier interface {
	Send(ctx context.Context, content string) error
}

// realtimeFeed is the slice of the gtfsrt wrapper FeedSource consumes.
type realtimeFeed interface {
	Refresh(ctx context.Context) error
	Trips() []string
	RouteForTrip(tripID string) string
	OnwardStops(tripID string) []string
	DepartureDelay(tripID, stopID string) (int32, bool)
	ExpectedDeparture(tripID, stopID string) int64
	Reason(tripID, routeID string) string
}

// FeedSource resolves the line status from a GTFS static index and a
// GTFS-RT feed: it picks the next scheduled departure of the line after
// "now" and reports its departure delay.
type FeedSource struct {
	gtfs   *gtfs.Index
	rt     realtimeFeed
	line   string
	stopID string
	now    func() time.Time
}

// NewFeedSource creates a FeedSource for one line. stopID may be empty to
// consider every stop the line serves.
func NewFeedSource(idx *gtfs.Index, rt realtimeFeed, line, stopID string) *FeedSource {
	return &FeedSource{
		gtfs:   idx,
		rt:     rt,
		line:   line,
		stopID: stopID,
		now:    time.Now,
	}
}

// LineStatus refreshes the realtime feed and returns the status of the next
// upcoming departure of the line, earliest first. The notice is returned
// even when the delay is zero; thresholding is the Monitor's concern.
func (s *FeedSource) LineStatus(ctx context.Context) (*DelayNotice, error) {
	routeIDs, err := s.gtfs.RoutesForLine(s.line, s.gtfs.AgencyID)
	if err != nil {
		return nil, err
	}
	routeSet := make(map[string]struct{}, len(routeIDs))
	for _, id := range routeIDs {
		routeSet[id] = struct{}{}
	}

	if err := s.rt.Refresh(ctx); err != nil {
		return nil, err
	}

	now := s.now()
	var best *DelayNotice
	for _, tripID := range s.rt.Trips() {
		routeID := s.rt.RouteForTrip(tripID)
		if routeID == "" {
			routeID = s.gtfs.TripRoute[tripID]
		}
		if _, ok := routeSet[routeID]; !ok {
			continue
		}
		for _, stopID := range s.rt.OnwardStops(tripID) {
			if s.stopID != "" && stopID != s.stopID {
				continue
			}
			sched, ok := s.gtfs.ScheduledDeparture(tripID, stopID, now)
			if !ok || !sched.After(now) {
				continue
			}
			delaySec, ok := s.rt.DepartureDelay(tripID, stopID)
			if !ok {
				// No explicit delay field: derive it from the estimated
				// departure when the feed provides one.
				etd := s.rt.ExpectedDeparture(tripID, stopID)
				if etd == 0 {
					continue
				}
				delaySec = int32(etd - sched.Unix())
			}
			if best == nil || sched.Before(best.Scheduled) {
				best = &DelayNotice{
					Line:      s.line,
					TripID:    tripID,
					StopID:    stopID,
					StopName:  s.gtfs.GetStopName(stopID),
					Scheduled: sched,
					Delay:     time.Duration(delaySec) * time.Second,
					Reason:    s.rt.Reason(tripID, routeID),
				}
			}
			// Only the first upcoming stop of each trip matters.
			break
		}
	}
	return best, nil
}
