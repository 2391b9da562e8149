// Package gtfsrt fetches GTFS-Realtime protobuf feeds over HTTP and indexes
// trip updates and service alerts for per-trip, per-stop delay lookups.
package gtfsrt
