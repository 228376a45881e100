package utils

import (
	"fmt"
	"net"

	"github.com/oschwald/maxminddb-golang"
)

// GeoIP resolves IP addresses to coordinates with a MaxMind City database.
type GeoIP struct {
	reader *maxminddb.Reader
}

type cityRecord struct {
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// OpenGeoIP loads a database from a path or URL.
func OpenGeoIP(loc string, useCache bool) (*GeoIP, error) {
	data, err := ReadAll(loc, useCache, "[GEOIP]")
	if err != nil {
		return nil, fmt.Errorf("read geoip db: %w", err)
	}
	r, err := maxminddb.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("open geoip db: %w", err)
	}
	return &GeoIP{reader: r}, nil
}

// LocateIP returns the coordinates recorded for ip. Addresses that do not parse, are not
// in the database, or carry no location report false.
func (g *GeoIP) LocateIP(ip string) (lat, lng float64, ok bool) {
	if g == nil || g.reader == nil {
		return 0, 0, false
	}
	addr := net.ParseIP(ip)
	if addr == nil {
		return 0, 0, false
	}
	var rec cityRecord
	if err := g.reader.Lookup(addr, &rec); err != nil {
		return 0, 0, false
	}
	if rec.Location.Latitude == 0 && rec.Location.Longitude == 0 {
		return 0, 0, false
	}
	return rec.Location.Latitude, rec.Location.Longitude, true
}

func (g *GeoIP) Close() error {
	if g == nil || g.reader == nil {
		return nil
	}
	return g.reader.Close()
}
