package simulator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jaswdr/faker"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/chrisdamba/trafficflow/internal/factories"
	"github.com/chrisdamba/trafficflow/internal/models"
)

// SlotTimeLayout is how generated files write time_start and time_end.
const SlotTimeLayout = "2006-01-02T15:04:05"

// Extra columns found in real survey exports that the aggregation drops.
const (
	ColumnRowID   = "_id"
	ColumnCountID = "count_id"
)

// Generator writes synthetic turning movement counts shaped like a raw
// survey export.
type Generator struct {
	cfg  models.SimulationConfig
	log  zerolog.Logger
	fake faker.Faker
	rng  *rand.Rand
}

func New(cfg models.SimulationConfig, log zerolog.Logger) *Generator {
	return &Generator{
		cfg:  cfg,
		log:  log,
		fake: faker.NewWithSeed(rand.NewSource(cfg.Seed)),
		rng:  rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Header is the column order of generated files.
func Header() []string {
	return append([]string{ColumnRowID, ColumnCountID}, models.SurveyColumns()...)
}

// SlotStarts lists the start offsets of every slot within a survey day.
func SlotStarts() []time.Duration {
	var starts []time.Duration
	for t := FirstSlot; t < LastSlotEnd; t += SlotLength {
		starts = append(starts, t)
	}
	return starts
}

// Intersections places the configured number of locations around the city
// center.
func (g *Generator) Intersections() []*models.Intersection {
	factory := factories.NewIntersectionFactory(g.fake, g.rng)
	out := make([]*models.Intersection, g.cfg.Locations)
	for i := range out {
		out[i] = factory.CreateIntersection(g.cfg)
	}
	return out
}

// Generate writes the survey to w and returns the number of data rows.
func (g *Generator) Generate(w io.Writer) (int, error) {
	if g.cfg.Locations <= 0 || g.cfg.Days <= 0 {
		return 0, fmt.Errorf("simulation needs at least one location and one day, got %d and %d", g.cfg.Locations, g.cfg.Days)
	}

	intersections := g.Intersections()
	slots := SlotStarts()
	start := time.Date(g.cfg.StartDate.Year(), g.cfg.StartDate.Month(), g.cfg.StartDate.Day(), 0, 0, 0, 0, time.UTC)

	var bar *progressbar.ProgressBar
	total := int64(g.cfg.Days * len(intersections))
	if g.cfg.Quiet {
		bar = progressbar.DefaultSilent(total, "simulating")
	} else {
		bar = progressbar.Default(total, "simulating")
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(Header()); err != nil {
		return 0, err
	}

	rows := 0
	for day := 0; day < g.cfg.Days; day++ {
		date := start.AddDate(0, 0, day)
		for i, in := range intersections {
			countID := strconv.Itoa((day+1)*100000 + i)
			for _, offset := range slots {
				rows++
				if err := csvWriter.Write(g.row(rows, countID, in, date, offset)); err != nil {
					return rows - 1, err
				}
			}
			_ = bar.Add(1)
		}
	}
	_ = bar.Finish()

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return rows, err
	}

	g.log.Info().
		Int("rows", rows).
		Int("locations", len(intersections)).
		Int("days", g.cfg.Days).
		Int64("seed", g.cfg.Seed).
		Msg("synthetic survey generated")
	return rows, nil
}

// GenerateFile writes the survey to path, creating parent directories.
func (g *Generator) GenerateFile(path string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create simulation output: %w", err)
	}
	defer file.Close()

	rows, err := g.Generate(file)
	if err != nil {
		return rows, err
	}
	return rows, file.Close()
}

func (g *Generator) row(id int, countID string, in *models.Intersection, date time.Time, offset time.Duration) []string {
	slotStart := date.Add(offset)
	hour := slotStart.Hour()
	density := g.generateTrafficDensity(hour) * weekdayFactor(date)

	row := []string{
		strconv.Itoa(id),
		countID,
		date.Format(models.CountDateLayout),
		in.ID,
		in.Name,
		strconv.FormatFloat(in.Location.Lon, 'f', -1, 64),
		strconv.FormatFloat(in.Location.Lat, 'f', -1, 64),
		slotStart.Format(SlotTimeLayout),
		slotStart.Add(SlotLength).Format(SlotTimeLayout),
	}
	for _, m := range models.Movements {
		row = append(row, g.count(in, m, hour, density))
	}
	return row
}

// count draws one movement count. A small share of bus counts is left
// empty, as real exports leave unobserved movements blank.
func (g *Generator) count(in *models.Intersection, m models.Movement, hour int, density float64) string {
	if m.Vehicle == models.Bus && g.rng.Float64() < 0.02 {
		return ""
	}
	mean := in.PeakVolume * density * VehicleShares[m.Vehicle] * TurnShares[m.Turn] * 4 * directionFactor(m.Direction, hour)
	noise := 0.8 + 0.4*g.rng.Float64()
	return strconv.Itoa(int(math.Round(mean * noise)))
}
