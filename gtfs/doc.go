// Package gtfs loads GTFS static feeds (zip of CSV files) into an in-memory
// index answering the schedule lookups delaywatch needs: which routes carry
// a line name, and when a trip is scheduled to depart a stop.
package gtfs
