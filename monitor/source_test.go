package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"delaywatch/gtfs"
)

// fakeFeed implements realtimeFeed from static data.
type fakeFeed struct {
	refreshErr error
	trips      []string
	routes     map[string]string
	stops      map[string][]string
	delays     map[string]map[string]int32
	etds       map[string]map[string]int64
	reasons    map[string]string
}

func (f *fakeFeed) Refresh(ctx context.Context) error { return f.refreshErr }
func (f *fakeFeed) Trips() []string                   { return f.trips }
func (f *fakeFeed) RouteForTrip(tripID string) string { return f.routes[tripID] }
func (f *fakeFeed) OnwardStops(tripID string) []string {
	return f.stops[tripID]
}
func (f *fakeFeed) DepartureDelay(tripID, stopID string) (int32, bool) {
	if m := f.delays[tripID]; m != nil {
		d, ok := m[stopID]
		return d, ok
	}
	return 0, false
}
func (f *fakeFeed) ExpectedDeparture(tripID, stopID string) int64 {
	if m := f.etds[tripID]; m != nil {
		return m[stopID]
	}
	return 0
}
func (f *fakeFeed) Reason(tripID, routeID string) string { return f.reasons[routeID] }

func testIndex() *gtfs.Index {
	g := gtfs.NewIndex()
	g.AgencyID = "11"
	g.AgencyTZ = "UTC"
	g.RouteShortNames["r-s7"] = "S7"
	g.RouteAgency["r-s7"] = "11"
	g.RouteShortNames["r-s3"] = "S3"
	g.RouteAgency["r-s3"] = "11"
	g.TripRoute["trip-early"] = "r-s7"
	g.TripRoute["trip-late"] = "r-s7"
	g.TripRoute["trip-s3"] = "r-s3"
	g.StopNames["8503000"] = "Zürich HB"
	g.StopNames["8503006"] = "Zürich Oerlikon"
	g.TripDeparture["trip-early"] = map[string]string{"8503000": "12:30:00", "8503006": "12:40:00"}
	g.TripDeparture["trip-late"] = map[string]string{"8503000": "13:30:00"}
	g.TripDeparture["trip-s3"] = map[string]string{"8503000": "12:10:00"}
	return g
}

func fixedNow() time.Time {
	return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newTestSource(rt *fakeFeed, stopID string) *FeedSource {
	s := NewFeedSource(testIndex(), rt, "S7", stopID)
	s.now = fixedNow
	return s
}

func TestFeedSource_PicksEarliestUpcomingDeparture(t *testing.T) {
	rt := &fakeFeed{
		trips: []string{"trip-late", "trip-early", "trip-s3"},
		routes: map[string]string{
			"trip-early": "r-s7",
			"trip-late":  "r-s7",
			"trip-s3":    "r-s3",
		},
		stops: map[string][]string{
			"trip-early": {"8503000", "8503006"},
			"trip-late":  {"8503000"},
			"trip-s3":    {"8503000"},
		},
		delays: map[string]map[string]int32{
			"trip-early": {"8503000": 720},
			"trip-late":  {"8503000": 60},
			"trip-s3":    {"8503000": 900},
		},
		reasons: map[string]string{"r-s7": "signal failure"},
	}
	notice, err := newTestSource(rt, "").LineStatus(context.Background())
	if err != nil {
		t.Fatalf("LineStatus failed: %v", err)
	}
	if notice == nil {
		t.Fatal("expected a notice")
	}
	if notice.TripID != "trip-early" {
		t.Errorf("TripID = %q, want the earliest upcoming trip", notice.TripID)
	}
	if notice.Delay != 12*time.Minute {
		t.Errorf("Delay = %v, want 12m", notice.Delay)
	}
	if notice.StopName != "Zürich HB" {
		t.Errorf("StopName = %q", notice.StopName)
	}
	if notice.Reason != "signal failure" {
		t.Errorf("Reason = %q, want signal failure", notice.Reason)
	}
	if notice.Line != "S7" {
		t.Errorf("Line = %q, want S7", notice.Line)
	}
}

func TestFeedSource_ZeroDelayStillReported(t *testing.T) {
	// Thresholding is the Monitor's job; the source reports what it sees.
	rt := &fakeFeed{
		trips:  []string{"trip-early"},
		routes: map[string]string{"trip-early": "r-s7"},
		stops:  map[string][]string{"trip-early": {"8503000"}},
		delays: map[string]map[string]int32{"trip-early": {"8503000": 0}},
	}
	notice, err := newTestSource(rt, "").LineStatus(context.Background())
	if err != nil {
		t.Fatalf("LineStatus failed: %v", err)
	}
	if notice == nil {
		t.Fatal("expected a notice")
	}
	if notice.Delay != 0 {
		t.Errorf("Delay = %v, want 0", notice.Delay)
	}
}

func TestFeedSource_StopFilter(t *testing.T) {
	rt := &fakeFeed{
		trips:  []string{"trip-early"},
		routes: map[string]string{"trip-early": "r-s7"},
		stops:  map[string][]string{"trip-early": {"8503000", "8503006"}},
		delays: map[string]map[string]int32{"trip-early": {"8503000": 120, "8503006": 300}},
	}
	notice, err := newTestSource(rt, "8503006").LineStatus(context.Background())
	if err != nil {
		t.Fatalf("LineStatus failed: %v", err)
	}
	if notice == nil {
		t.Fatal("expected a notice")
	}
	if notice.StopID != "8503006" {
		t.Errorf("StopID = %q, want the filtered stop", notice.StopID)
	}
	if notice.Delay != 5*time.Minute {
		t.Errorf("Delay = %v, want 5m", notice.Delay)
	}
}

func TestFeedSource_DerivesDelayFromExpectedDeparture(t *testing.T) {
	sched := time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC)
	rt := &fakeFeed{
		trips:  []string{"trip-early"},
		routes: map[string]string{"trip-early": "r-s7"},
		stops:  map[string][]string{"trip-early": {"8503000"}},
		etds:   map[string]map[string]int64{"trip-early": {"8503000": sched.Unix() + 180}},
	}
	notice, err := newTestSource(rt, "").LineStatus(context.Background())
	if err != nil {
		t.Fatalf("LineStatus failed: %v", err)
	}
	if notice == nil {
		t.Fatal("expected a notice")
	}
	if notice.Delay != 3*time.Minute {
		t.Errorf("derived Delay = %v, want 3m", notice.Delay)
	}
}

func TestFeedSource_FallsBackToStaticRoute(t *testing.T) {
	// Some feeds omit route_id from the trip descriptor; the static index
	// supplies it.
	rt := &fakeFeed{
		trips:  []string{"trip-early"},
		routes: map[string]string{},
		stops:  map[string][]string{"trip-early": {"8503000"}},
		delays: map[string]map[string]int32{"trip-early": {"8503000": 120}},
	}
	notice, err := newTestSource(rt, "").LineStatus(context.Background())
	if err != nil {
		t.Fatalf("LineStatus failed: %v", err)
	}
	if notice == nil {
		t.Fatal("expected a notice via the static trip-to-route mapping")
	}
}

func TestFeedSource_NoUpcomingDeparture(t *testing.T) {
	tests := []struct {
		name string
		rt   *fakeFeed
	}{
		{
			name: "empty feed",
			rt:   &fakeFeed{},
		},
		{
			name: "only other lines",
			rt: &fakeFeed{
				trips:  []string{"trip-s3"},
				routes: map[string]string{"trip-s3": "r-s3"},
				stops:  map[string][]string{"trip-s3": {"8503000"}},
				delays: map[string]map[string]int32{"trip-s3": {"8503000": 600}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notice, err := newTestSource(tt.rt, "").LineStatus(context.Background())
			if err != nil {
				t.Fatalf("LineStatus failed: %v", err)
			}
			if notice != nil {
				t.Errorf("expected no notice, got %+v", notice)
			}
		})
	}

	t.Run("departures already passed", func(t *testing.T) {
		rt := &fakeFeed{
			trips:  []string{"trip-early", "trip-late"},
			routes: map[string]string{"trip-early": "r-s7", "trip-late": "r-s7"},
			stops: map[string][]string{
				"trip-early": {"8503000", "8503006"},
				"trip-late":  {"8503000"},
			},
			delays: map[string]map[string]int32{
				"trip-early": {"8503000": 600},
				"trip-late":  {"8503000": 600},
			},
		}
		s := NewFeedSource(testIndex(), rt, "S7", "")
		s.now = func() time.Time {
			return time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC)
		}
		notice, err := s.LineStatus(context.Background())
		if err != nil {
			t.Fatalf("LineStatus failed: %v", err)
		}
		if notice != nil {
			t.Errorf("expected no notice after the last departure, got %+v", notice)
		}
	})
}

func TestFeedSource_Errors(t *testing.T) {
	t.Run("refresh failure", func(t *testing.T) {
		rt := &fakeFeed{refreshErr: errors.New("HTTP 503 from feed")}
		if _, err := newTestSource(rt, "").LineStatus(context.Background()); err == nil {
			t.Fatal("expected refresh error to propagate")
		}
	})
	t.Run("unknown line", func(t *testing.T) {
		s := NewFeedSource(testIndex(), &fakeFeed{}, "IC5", "")
		s.now = fixedNow
		if _, err := s.LineStatus(context.Background()); err == nil {
			t.Fatal("expected error for a line absent from the schedule")
		}
	})
}
