package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"

	"github.com/chrisdamba/trafficflow/internal/models"
)

//go:embed templates/map.html.tmpl
var mapTemplateSource string

var mapTemplate = template.Must(template.New("map").Parse(mapTemplateSource))

// FeatureTimeLayout is the timestamp format read by the map's time slider.
const FeatureTimeLayout = "2006-01-02T15:04:05"

type MapOptions struct {
	Title         string
	ReferenceDate time.Time
	Center        models.Location
	AutoCenter    bool
	Zoom          int
	Period        string
}

// MapRenderer draws time slots as coloured points on a time-animated map.
type MapRenderer struct {
	opts MapOptions
	log  zerolog.Logger
}

func NewMapRenderer(opts MapOptions, log zerolog.Logger) *MapRenderer {
	if opts.Title == "" {
		opts.Title = "Daily traffic"
	}
	if opts.Period == "" {
		opts.Period = "PT15M"
	}
	if opts.Zoom == 0 {
		opts.Zoom = 14
	}
	return &MapRenderer{opts: opts, log: log}
}

// SlotTime places a time slot on the renderer's reference date.
func (m *MapRenderer) SlotTime(r models.TimeSlotRecord) time.Time {
	y, mo, d := m.opts.ReferenceDate.Date()
	return time.Date(y, mo, d, r.Hour, r.Minute, 0, 0, time.UTC)
}

// FeatureCollection converts records into GeoJSON point features coloured by
// per-location intensity. Records without coordinates cannot be placed and
// are skipped; the number skipped is returned.
func (m *MapRenderer) FeatureCollection(records []models.TimeSlotRecord) (*geojson.FeatureCollection, int) {
	intensities := NormalizeIntensity(records)
	if flat := DegenerateLocations(records); len(flat) > 0 {
		m.log.Debug().
			Strs("locations", flat).
			Float64("intensity", DegenerateIntensity).
			Msg("locations without a traffic range drawn at mid intensity")
	}

	fc := geojson.NewFeatureCollection()
	skipped := 0
	for i, r := range records {
		loc, ok := models.LocationOf(r)
		if !ok {
			skipped++
			continue
		}

		f := geojson.NewFeature(orb.Point{loc.Lon, loc.Lat})
		f.Properties["time"] = m.SlotTime(r).Format(FeatureTimeLayout)
		f.Properties["icon"] = "circle"
		f.Properties["style"] = map[string]interface{}{
			"color":     "black",
			"fillColor": IntensityColor(intensities[i]),
			"radius":    10,
		}
		f.Properties["location_id"] = r.LocationID
		f.Properties["traffic_total"] = r.TrafficTotal
		f.Properties["intensity"] = intensities[i]
		fc.Append(f)
	}

	return fc, skipped
}

// Center picks the map center: the centroid of the surveyed locations when
// auto centering is on and possible, the configured center otherwise.
func (m *MapRenderer) Center(records []models.TimeSlotRecord) models.Location {
	if m.opts.AutoCenter {
		if c, ok := Centroid(records); ok {
			return c
		}
		m.log.Warn().Msg("no located records, falling back to configured map center")
	}
	return m.opts.Center
}

// Render writes a standalone HTML page with the animated map.
func (m *MapRenderer) Render(w io.Writer, records []models.TimeSlotRecord) error {
	fc, skipped := m.FeatureCollection(records)
	if skipped > 0 {
		m.log.Warn().Int("skipped", skipped).Msg("time slots without coordinates left off the map")
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode map features: %w", err)
	}

	center := m.Center(records)
	view := struct {
		Title        string
		GeoJSON      template.JS
		CenterLat    float64
		CenterLon    float64
		Zoom         int
		Period       string
		AutoPlay     bool
		AddLastPoint bool
	}{
		Title:     m.opts.Title,
		GeoJSON:   template.JS(data),
		CenterLat: center.Lat,
		CenterLon: center.Lon,
		Zoom:      m.opts.Zoom,
		Period:    m.opts.Period,
	}

	if err := mapTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}

	m.log.Debug().
		Int("features", len(fc.Features)).
		Float64("center_lat", center.Lat).
		Float64("center_lon", center.Lon).
		Msg("map rendered")
	return nil
}
