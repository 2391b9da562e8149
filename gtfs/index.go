package gtfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Index stores the slice of GTFS static data delaywatch needs in memory.
// Fields are exported so the index can be round-tripped through gob for
// the on-disk cache.
type Index struct {
	AgencyID   string
	AgencyName string
	AgencyTZ   string

	RouteShortNames map[string]string            // route_id -> route_short_name
	RouteAgency     map[string]string            // route_id -> agency_id
	RouteTrips      map[string][]string          // route_id -> trip_ids
	TripRoute       map[string]string            // trip_id -> route_id
	TripStopSeq     map[string][]string          // trip_id -> ordered stop_ids
	TripDeparture   map[string]map[string]string // trip_id -> stop_id -> departure_time (HH:MM:SS)
	StopNames       map[string]string            // stop_id -> stop_name
}

// NewIndex creates a new empty GTFS index
func NewIndex() *Index {
	return &Index{
		RouteShortNames: map[string]string{},
		RouteAgency:     map[string]string{},
		RouteTrips:      map[string][]string{},
		TripRoute:       map[string]string{},
		TripStopSeq:     map[string][]string{},
		TripDeparture:   map[string]map[string]string{},
		StopNames:       map[string]string{},
	}
}

// RoutesForLine returns all route_ids whose short name matches lineName.
// When agencyID is non-empty only routes operated by that agency match.
// An empty result is an error: a misconfigured line name should abort the
// run rather than silently never notify.
func (g *Index) RoutesForLine(lineName, agencyID string) ([]string, error) {
	var ids []string
	for routeID, short := range g.RouteShortNames {
		if short != lineName {
			continue
		}
		if agencyID != "" && g.RouteAgency[routeID] != agencyID {
			continue
		}
		ids = append(ids, routeID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no route found for line %q (agency %q)", lineName, agencyID)
	}
	return ids, nil
}

// GetStopName returns the stop name for a stop_id, or "" when unknown.
func (g *Index) GetStopName(stopID string) string { return g.StopNames[stopID] }

// GetRouteShortName returns the short name for a route_id, or "" when unknown.
func (g *Index) GetRouteShortName(routeID string) string { return g.RouteShortNames[routeID] }

// Location resolves the agency timezone, defaulting to Europe/Zurich for
// feeds that omit agency.txt timezone data.
func (g *Index) Location() *time.Location {
	if g.AgencyTZ != "" {
		if loc, err := time.LoadLocation(g.AgencyTZ); err == nil {
			return loc
		}
	}
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScheduledDeparture resolves the scheduled departure of a trip at a stop
// to a wall-clock time on ref's service day in the agency timezone.
// GTFS times may exceed 24:00:00 for after-midnight departures; those roll
// into the next calendar day naturally.
func (g *Index) ScheduledDeparture(tripID, stopID string, ref time.Time) (time.Time, bool) {
	byStop := g.TripDeparture[tripID]
	if byStop == nil {
		return time.Time{}, false
	}
	hms := byStop[stopID]
	if hms == "" {
		return time.Time{}, false
	}
	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	s, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	loc := g.Location()
	local := ref.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(time.Duration(h*3600+m*60+s) * time.Second), true
}
