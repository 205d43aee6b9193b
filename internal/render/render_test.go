package render

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/chrisdamba/trafficflow/internal/models"
)

func slot(loc string, lng, lat float64, hour, minute int, total int64) models.TimeSlotRecord {
	return models.TimeSlotRecord{
		LocationID:   loc,
		Lng:          sql.NullFloat64{Float64: lng, Valid: true},
		Lat:          sql.NullFloat64{Float64: lat, Valid: true},
		Hour:         hour,
		Minute:       minute,
		TrafficTotal: total,
		Time:         models.TimeLabel(hour, minute),
	}
}

func TestIntensityColor(t *testing.T) {
	tests := []struct {
		x    float64
		want string
	}{
		{0.0, "#00ff00"},
		{0.25, "#80ff00"},
		{0.5, "#ffff00"},
		{0.75, "#ff8000"},
		{1.0, "#ff0000"},
		{-0.3, "#00ff00"},
		{1.7, "#ff0000"},
	}
	for _, tt := range tests {
		if got := IntensityColor(tt.x); got != tt.want {
			t.Errorf("IntensityColor(%v) = %s, want %s", tt.x, got, tt.want)
		}
	}
}

func TestNormalizeIntensityPerLocation(t *testing.T) {
	records := []models.TimeSlotRecord{
		slot("1", -79.38, 43.66, 8, 0, 0),
		slot("2", -79.39, 43.65, 8, 0, 2000),
		slot("1", -79.38, 43.66, 8, 15, 99),
		slot("2", -79.39, 43.65, 8, 15, 25),
		slot("1", -79.38, 43.66, 8, 30, 9),
	}

	got := NormalizeIntensity(records)

	want := []float64{
		0,
		1,
		1,
		0,
		math.Log(10) / math.Log(100),
	}
	if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })); diff != "" {
		t.Errorf("NormalizeIntensity() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeIntensityDegenerateRange(t *testing.T) {
	records := []models.TimeSlotRecord{
		slot("single", 0, 0, 9, 0, 40),
		slot("flat", 0, 0, 9, 0, 12),
		slot("flat", 0, 0, 9, 15, 12),
	}

	for i, v := range NormalizeIntensity(records) {
		if v != DegenerateIntensity {
			t.Errorf("intensity[%d] = %v, want %v", i, v, DegenerateIntensity)
		}
	}
}

func TestDegenerateLocations(t *testing.T) {
	records := []models.TimeSlotRecord{
		slot("single", 0, 0, 9, 0, 40),
		slot("busy", 0, 0, 9, 0, 10),
		slot("busy", 0, 0, 9, 15, 90),
		slot("flat", 0, 0, 9, 0, 12),
		slot("flat", 0, 0, 9, 15, 12),
	}

	if diff := cmp.Diff([]string{"flat", "single"}, DegenerateLocations(records)); diff != "" {
		t.Errorf("DegenerateLocations() mismatch (-want +got):\n%s", diff)
	}
}

func TestFeatureCollectionLogsDegenerateLocations(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	m := NewMapRenderer(MapOptions{}, log)

	m.FeatureCollection([]models.TimeSlotRecord{
		slot("flat", -79.38, 43.66, 9, 0, 12),
		slot("busy", -79.39, 43.65, 9, 0, 10),
		slot("busy", -79.39, 43.65, 9, 15, 90),
	})

	var entry struct {
		Level     string   `json:"level"`
		Locations []string `json:"locations"`
		Intensity float64  `json:"intensity"`
	}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output %q: %v", buf.String(), err)
	}
	if entry.Level != "debug" {
		t.Errorf("level = %q, want debug", entry.Level)
	}
	if diff := cmp.Diff([]string{"flat"}, entry.Locations); diff != "" {
		t.Errorf("locations mismatch (-want +got):\n%s", diff)
	}
	if entry.Intensity != DegenerateIntensity {
		t.Errorf("intensity = %v, want %v", entry.Intensity, DegenerateIntensity)
	}
}

func TestCentroid(t *testing.T) {
	records := []models.TimeSlotRecord{
		slot("1", 10, 0, 8, 0, 1),
		slot("2", -10, 0, 8, 0, 1),
		slot("1", 10, 0, 8, 15, 1),
		{LocationID: "3", Hour: 8},
	}

	c, ok := Centroid(records)
	if !ok {
		t.Fatal("Centroid() reported no locations")
	}
	if math.Abs(c.Lat) > 1e-9 || math.Abs(c.Lon) > 1e-9 {
		t.Errorf("Centroid() = %+v, want 0,0", c)
	}

	if _, ok := Centroid([]models.TimeSlotRecord{{LocationID: "3"}}); ok {
		t.Error("Centroid() of records without coordinates should report false")
	}
}

func TestMapRendererFeatureCollection(t *testing.T) {
	m := NewMapRenderer(MapOptions{
		ReferenceDate: time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC),
	}, zerolog.Nop())

	records := []models.TimeSlotRecord{
		slot("1", -79.38, 43.66, 8, 30, 10),
		slot("1", -79.38, 43.66, 9, 0, 1000),
		{LocationID: "2", Hour: 8, Minute: 30, TrafficTotal: 5, Time: "8:30"},
	}

	fc, skipped := m.FeatureCollection(records)
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(fc.Features))
	}

	first := fc.Features[0]
	if got := first.Properties["time"]; got != "2024-11-10T08:30:00" {
		t.Errorf("time = %v, want 2024-11-10T08:30:00", got)
	}
	style := first.Properties["style"].(map[string]interface{})
	if style["fillColor"] != "#00ff00" {
		t.Errorf("fillColor = %v, want #00ff00", style["fillColor"])
	}
	if style = fc.Features[1].Properties["style"].(map[string]interface{}); style["fillColor"] != "#ff0000" {
		t.Errorf("fillColor = %v, want #ff0000", style["fillColor"])
	}

	raw, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	var decoded struct {
		Features []struct {
			Geometry struct {
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]float64{-79.38, 43.66}, decoded.Features[0].Geometry.Coordinates); diff != "" {
		t.Errorf("coordinates are not [lng, lat] (-want +got):\n%s", diff)
	}
}

func TestMapRendererRender(t *testing.T) {
	m := NewMapRenderer(MapOptions{
		ReferenceDate: time.Date(2024, 11, 10, 0, 0, 0, 0, time.UTC),
		Center:        models.Location{Lat: 43.66, Lon: -79.38},
	}, zerolog.Nop())

	var buf bytes.Buffer
	err := m.Render(&buf, []models.TimeSlotRecord{
		slot("1", -79.38, 43.66, 8, 30, 10),
		slot("1", -79.38, 43.66, 8, 45, 20),
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	page := buf.String()
	for _, want := range []string{`"PT15M"`, `"FeatureCollection"`, "2024-11-10T08:45:00", "leaflet.timedimension"} {
		if !strings.Contains(page, want) {
			t.Errorf("rendered page does not contain %s", want)
		}
	}
	for _, pattern := range []string{`autoPlay:\s*false`, `addlastPoint:\s*false`, `setView\(\[\s*43\.66\s*,\s*-79\.38\s*\],\s*14\s*\)`} {
		if !regexp.MustCompile(pattern).MatchString(page) {
			t.Errorf("rendered page does not match %s", pattern)
		}
	}
}

func TestMapRendererAutoCenter(t *testing.T) {
	fallback := models.Location{Lat: 1, Lon: 2}
	m := NewMapRenderer(MapOptions{Center: fallback, AutoCenter: true}, zerolog.Nop())

	c := m.Center([]models.TimeSlotRecord{slot("1", -79.4, 43.7, 8, 0, 1)})
	if math.Abs(c.Lat-43.7) > 1e-9 || math.Abs(c.Lon+79.4) > 1e-9 {
		t.Errorf("Center() = %+v, want the only location", c)
	}

	if got := m.Center(nil); got != fallback {
		t.Errorf("Center(nil) = %+v, want configured %+v", got, fallback)
	}
}

func TestBuildLineSeriesAveragesPerLabel(t *testing.T) {
	series := BuildLineSeries([]models.TimeSlotRecord{
		slot("1", 0, 0, 8, 0, 10),
		slot("2", 0, 0, 8, 0, 30),
		slot("1", 0, 0, 8, 15, 5),
		slot("1", 0, 0, 14, 0, 7),
	})

	if diff := cmp.Diff([]string{"8:0", "8:15", "14:0"}, series.Labels); diff != "" {
		t.Errorf("Labels mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{20, 5, 7}, series.Values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}

func TestTicksEveryFourthLabel(t *testing.T) {
	labels := []string{"7:0", "7:15", "7:30", "7:45", "8:0", "8:15"}
	ticks := Ticks(labels, 4)

	var labeled []string
	for _, tick := range ticks {
		if tick.Label != "" {
			labeled = append(labeled, tick.Label)
		}
	}
	if diff := cmp.Diff([]string{"7:0", "8:0"}, labeled); diff != "" {
		t.Errorf("labeled ticks mismatch (-want +got):\n%s", diff)
	}
	if len(ticks) != len(labels) {
		t.Errorf("got %d ticks, want %d", len(ticks), len(labels))
	}
}

func TestLinePlotRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	err := NewLinePlot().Render(&buf, []models.TimeSlotRecord{
		slot("1", 0, 0, 8, 0, 10),
		slot("1", 0, 0, 8, 15, 25),
		slot("1", 0, 0, 8, 30, 18),
	})
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("line plot output is not a PNG")
	}
}
