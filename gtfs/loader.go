package gtfs

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"delaywatch/config"
)

// FromConfig builds a GTFS index from configuration. A previously cached
// index in cfg.CacheDir is used when present, mirroring the "already up to
// date" short-circuit of re-downloading the static feed on every run.
func FromConfig(cfg config.GTFSConfig) (*Index, error) {
	key := cfg.StaticURL + "\x00" + cfg.AgencyID
	if cfg.CacheDir != "" {
		if g, err := LoadCachedIndex(cfg.CacheDir, key); err == nil {
			return g, nil
		}
	}
	g := NewIndex()
	g.AgencyID = cfg.AgencyID
	if cfg.StaticURL == "" {
		return nil, fmt.Errorf("gtfs: no staticURL configured")
	}
	var err error
	if strings.HasPrefix(cfg.StaticURL, "http://") || strings.HasPrefix(cfg.StaticURL, "https://") {
		err = g.loadFromStaticZip(cfg.StaticURL)
	} else {
		err = g.loadFromLocalZip(cfg.StaticURL)
	}
	if err != nil {
		return nil, err
	}
	if cfg.CacheDir != "" {
		// Cache failures are not fatal; the index is already in memory.
		_ = SaveCachedIndex(g, cfg.CacheDir, key)
	}
	return g, nil
}

func (g *Index) loadFromStaticZip(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	tmp, err := os.CreateTemp("", "gtfs-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return g.loadFromLocalZip(tmp.Name())
}

// loadFromLocalZip opens a local GTFS zip file and consumes required CSVs.
func (g *Index) loadFromLocalZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if name == "agency.txt" || name == "routes.txt" || name == "trips.txt" || name == "stops.txt" || name == "stop_times.txt" {
			if err := g.consumeCSV(f); err != nil {
				return fmt.Errorf("gtfs: %s: %w", f.Name, err)
			}
		}
	}
	return nil
}

func (g *Index) consumeCSV(f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	// The csv reader's record-consistency check stays on: a ragged row is
	// a malformed feed and must surface as an error, not a panic later.
	csvr := csv.NewReader(r)
	rec, err := csvr.ReadAll()
	if err != nil {
		return err
	}
	if len(rec) == 0 {
		return nil
	}
	head := rec[0]
	idx := func(col string) int {
		for i, h := range head {
			if strings.EqualFold(strings.TrimSpace(h), col) {
				return i
			}
		}
		return -1
	}
	switch strings.ToLower(f.Name) {
	case "agency.txt":
		agID := idx("agency_id")
		agName := idx("agency_name")
		agTZ := idx("agency_timezone")
		if len(rec) > 1 {
			if agID >= 0 && g.AgencyID == "" {
				g.AgencyID = rec[1][agID]
			}
			if agName >= 0 {
				g.AgencyName = rec[1][agName]
			}
			if agTZ >= 0 {
				g.AgencyTZ = rec[1][agTZ]
			}
		}
	case "routes.txt":
		rID := idx("route_id")
		rSN := idx("route_short_name")
		rAg := idx("agency_id")
		if rID < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			if rSN >= 0 && rSN < len(row) {
				g.RouteShortNames[row[rID]] = row[rSN]
			}
			if rAg >= 0 && rAg < len(row) {
				g.RouteAgency[row[rID]] = row[rAg]
			}
		}
	case "trips.txt":
		rID := idx("route_id")
		tID := idx("trip_id")
		if rID < 0 || tID < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			g.TripRoute[row[tID]] = row[rID]
			g.RouteTrips[row[rID]] = append(g.RouteTrips[row[rID]], row[tID])
		}
	case "stops.txt":
		sID := idx("stop_id")
		sN := idx("stop_name")
		if sID < 0 || sN < 0 {
			return nil
		}
		for _, row := range rec[1:] {
			g.StopNames[row[sID]] = row[sN]
		}
	case "stop_times.txt":
		tID := idx("trip_id")
		sID := idx("stop_id")
		sq := idx("stop_sequence")
		depTime := idx("departure_time")
		if tID < 0 || sID < 0 || sq < 0 {
			return nil
		}
		tmp := map[string][]struct {
			stop    string
			seq     int
			depTime string
		}{}
		for _, row := range rec[1:] {
			trip := row[tID]
			stop := row[sID]
			seq, _ := strconv.Atoi(row[sq])
			depT := ""
			if depTime >= 0 && depTime < len(row) {
				depT = row[depTime]
			}
			tmp[trip] = append(tmp[trip], struct {
				stop    string
				seq     int
				depTime string
			}{stop, seq, depT})
		}
		for trip, arr := range tmp {
			sort.Slice(arr, func(i, j int) bool { return arr[i].seq < arr[j].seq })
			g.TripDeparture[trip] = make(map[string]string, len(arr))
			seqStops := make([]string, 0, len(arr))
			for _, v := range arr {
				seqStops = append(seqStops, v.stop)
				if v.depTime != "" {
					g.TripDeparture[trip][v.stop] = v.depTime
				}
			}
			g.TripStopSeq[trip] = seqStops
		}
	}
	return nil
}
