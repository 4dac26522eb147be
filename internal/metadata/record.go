// Package metadata parses Takeout-style sidecar records and pairs them with
// media entries, tolerating the name truncation and counter suffixes the
// exporter's archive splitting produces.
package metadata

import (
	"encoding/json"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
)

// GeoPoint is an optional geo location attached to a sidecar record.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// Record is the parsed sidecar for one media file. All fields beyond Title
// are optional; absent fields stay nil/empty. Records are immutable once
// parsed.
type Record struct {
	// Title is the original media filename as recorded by the source.
	Title       string
	Description string

	// TakenTime is the capture instant; CreationTime is the upload/creation
	// instant. CaptureTime prefers the former.
	TakenTime    *time.Time
	CreationTime *time.Time

	Geo    *GeoPoint
	People []string
	Albums []string

	// Raw holds the sidecar bytes verbatim for the metadata mirror.
	Raw json.RawMessage
}

// CaptureTime returns the best capture instant the record carries, or nil.
func (r *Record) CaptureTime() *time.Time {
	if r == nil {
		return nil
	}
	if r.TakenTime != nil {
		return r.TakenTime
	}
	return r.CreationTime
}

// sidecarJSON mirrors the exporter's sidecar shape. Timestamps arrive as
// decimal strings of Unix seconds.
type sidecarJSON struct {
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	PhotoTakenTime *sidecarTime  `json:"photoTakenTime"`
	CreationTime   *sidecarTime  `json:"creationTime"`
	GeoData        *sidecarGeo   `json:"geoData"`
	GeoDataExif    *sidecarGeo   `json:"geoDataExif"`
	People         []sidecarName `json:"people"`
	Albums         []sidecarName `json:"albums"`
}

type sidecarTime struct {
	Timestamp string `json:"timestamp"`
}

type sidecarGeo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

type sidecarName struct {
	Name string `json:"name"`
}

// ParseRecord decodes one sidecar stream into a Record.
func ParseRecord(r io.Reader) (*Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read sidecar")
	}
	var sc sidecarJSON
	if err := json.Unmarshal(raw, &sc); err != nil {
		return nil, errors.Wrap(err, "decode sidecar")
	}

	rec := &Record{
		Title:        sc.Title,
		Description:  sc.Description,
		TakenTime:    sc.PhotoTakenTime.instant(),
		CreationTime: sc.CreationTime.instant(),
		Raw:          raw,
	}
	if geo := firstGeo(sc.GeoData, sc.GeoDataExif); geo != nil {
		rec.Geo = &GeoPoint{Latitude: geo.Latitude, Longitude: geo.Longitude, Altitude: geo.Altitude}
	}
	for _, p := range sc.People {
		if p.Name != "" {
			rec.People = append(rec.People, p.Name)
		}
	}
	for _, a := range sc.Albums {
		if a.Name != "" {
			rec.Albums = append(rec.Albums, a.Name)
		}
	}
	return rec, nil
}

func (t *sidecarTime) instant() *time.Time {
	if t == nil || t.Timestamp == "" {
		return nil
	}
	secs, err := strconv.ParseInt(t.Timestamp, 10, 64)
	if err != nil {
		return nil
	}
	ts := time.Unix(secs, 0).UTC()
	return &ts
}

// firstGeo returns the first geo block carrying an actual location. The
// exporter emits all-zero geoData blocks for media without location.
func firstGeo(blocks ...*sidecarGeo) *sidecarGeo {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		if b.Latitude != 0 || b.Longitude != 0 || b.Altitude != 0 {
			return b
		}
	}
	return nil
}
