package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/lucsky/cuid"
	"github.com/rs/zerolog"

	"github.com/chrisdamba/trafficflow/internal/aggregator"
	"github.com/chrisdamba/trafficflow/internal/cloudwriter"
	"github.com/chrisdamba/trafficflow/internal/models"
	"github.com/chrisdamba/trafficflow/internal/output"
	"github.com/chrisdamba/trafficflow/internal/render"
	"github.com/chrisdamba/trafficflow/internal/survey"
)

type Result struct {
	RunID     string
	Summary   aggregator.Summary
	Records   []models.TimeSlotRecord
	Artifacts []string // committed paths inside the output folder
	Uploaded  []string // object keys, empty when cloud storage is off
}

// Pipeline turns a raw survey file into the line plot, the animated map and
// the exported time slot tables.
type Pipeline struct {
	cfg        *models.Config
	log        zerolog.Logger
	aggregator *aggregator.FeatureAggregator
	lineplot   *render.LinePlot
	maps       *render.MapRenderer
	cloud      cloudwriter.CloudWriterFactory
}

func New(cfg *models.Config, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		aggregator: aggregator.NewFeatureAggregator(cfg.FromYear, log),
		lineplot:   render.NewLinePlot(),
		maps: render.NewMapRenderer(render.MapOptions{
			ReferenceDate: cfg.Map.ReferenceDate,
			Center:        models.Location{Lat: cfg.Map.CenterLat, Lon: cfg.Map.CenterLon},
			AutoCenter:    cfg.Map.AutoCenter,
			Zoom:          cfg.Map.Zoom,
			Period:        cfg.Map.Period,
		}, log),
	}
}

// WithCloudWriterFactory overrides the writer factory used for uploads.
func (p *Pipeline) WithCloudWriterFactory(f cloudwriter.CloudWriterFactory) *Pipeline {
	p.cloud = f
	return p
}

func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: cuid.New()}
	log := p.log.With().Str("run_id", res.RunID).Logger()

	log.Info().Str("path", p.cfg.RawDataPath).Msg("loading raw survey data")
	df, err := survey.ReadFile(p.cfg.RawDataPath)
	if err != nil {
		return nil, err
	}

	records, summary, err := p.aggregator.TransformWithSummary(df)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate survey counts: %w", err)
	}
	res.Records = records
	res.Summary = summary
	logSlot(log, records, morningPeakLabel)

	if err := os.MkdirAll(p.cfg.OutputFolder, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output folder: %w", err)
	}
	staging, err := os.MkdirTemp(p.cfg.OutputFolder, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging folder: %w", err)
	}
	defer os.RemoveAll(staging)

	names, err := p.stage(staging, records)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifacts, err := commit(staging, p.cfg.OutputFolder, names)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	log.Info().Strs("artifacts", artifacts).Msg("artifacts written")

	if p.cfg.CloudStorage.Provider == models.CloudProviderNone {
		return res, nil
	}
	uploaded, err := p.upload(ctx, res.RunID, artifacts)
	res.Uploaded = uploaded
	if err != nil {
		return res, err
	}
	log.Info().
		Str("bucket", p.cfg.CloudStorage.BucketName).
		Int("objects", len(uploaded)).
		Msg("artifacts uploaded")
	return res, nil
}

// stage renders every artifact into dir and returns their file names.
func (p *Pipeline) stage(dir string, records []models.TimeSlotRecord) ([]string, error) {
	var names []string

	if err := writeFile(filepath.Join(dir, p.cfg.LinePlotFile), func(w io.Writer) error {
		return p.lineplot.Render(w, records)
	}); err != nil {
		return nil, fmt.Errorf("failed to render line plot: %w", err)
	}
	names = append(names, p.cfg.LinePlotFile)

	if err := writeFile(filepath.Join(dir, p.cfg.MapFile), func(w io.Writer) error {
		return p.maps.Render(w, records)
	}); err != nil {
		return nil, fmt.Errorf("failed to render map: %w", err)
	}
	names = append(names, p.cfg.MapFile)

	tables, err := output.WriteTables(dir, p.cfg.TableBasename, p.cfg.OutputFormats, records)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		names = append(names, filepath.Base(t))
	}
	return names, nil
}

// commit moves staged files into dest. Files a previous run left in dest are
// first set aside in staging, so a failed move restores dest as it was.
func commit(staging, dest string, names []string) ([]string, error) {
	backup := filepath.Join(staging, ".previous")
	if err := os.Mkdir(backup, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create backup folder: %w", err)
	}

	done := make([]move, 0, len(names))
	for _, name := range names {
		m := move{target: filepath.Join(dest, name)}
		previous := filepath.Join(backup, name)
		switch err := os.Rename(m.target, previous); {
		case err == nil:
			m.previous = previous
		case !errors.Is(err, fs.ErrNotExist):
			return nil, errors.Join(fmt.Errorf("failed to back up %s: %w", name, err), rollback(done))
		}

		done = append(done, m)
		if err := os.Rename(filepath.Join(staging, name), m.target); err != nil {
			return nil, errors.Join(fmt.Errorf("failed to commit %s: %w", name, err), rollback(done))
		}
	}

	committed := make([]string, len(done))
	for i, m := range done {
		committed[i] = m.target
	}
	return committed, nil
}

type move struct {
	target   string
	previous string // backup of the file target replaced, if any
}

// rollback undoes moves newest first, putting back replaced files.
func rollback(moves []move) error {
	var errs []error
	for i := len(moves) - 1; i >= 0; i-- {
		m := moves[i]
		if m.previous != "" {
			if err := os.Rename(m.previous, m.target); err != nil {
				errs = append(errs, fmt.Errorf("failed to restore %s: %w", m.target, err))
			}
			continue
		}
		if err := os.Remove(m.target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", m.target, err))
		}
	}
	return errors.Join(errs...)
}

func (p *Pipeline) upload(ctx context.Context, runID string, artifacts []string) ([]string, error) {
	if p.cloud == nil {
		switch p.cfg.CloudStorage.Provider {
		case models.CloudProviderS3:
			factory, err := cloudwriter.NewS3WriterFactory(ctx, p.cfg.CloudStorage.Region)
			if err != nil {
				return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
			}
			p.cloud = factory
		default:
			return nil, fmt.Errorf("unsupported cloud storage provider: %s", p.cfg.CloudStorage.Provider)
		}
	}

	var keys []string
	for _, artifact := range artifacts {
		key := path.Join(p.cfg.CloudStorage.Prefix, runID, filepath.Base(artifact))
		if err := p.uploadFile(ctx, artifact, key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *Pipeline) uploadFile(ctx context.Context, artifact, key string) error {
	f, err := os.Open(artifact)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := p.cloud.NewWriter(p.cfg.CloudStorage.BucketName, key)
	if err != nil {
		return fmt.Errorf("failed to create cloud file writer: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to buffer %s: %w", artifact, err)
	}
	return w.Close(ctx)
}

// morningPeakLabel is the time of day spot-checked after every aggregation.
const morningPeakLabel = "8:30"

func logSlot(log zerolog.Logger, records []models.TimeSlotRecord, label string) {
	slots := aggregator.SlotsAt(records, label)
	var total int64
	for _, s := range slots {
		total += s.TrafficTotal
	}
	log.Debug().
		Str("time", label).
		Int("locations", len(slots)).
		Int64("traffic_total", total).
		Msg("time slot spot check")
}

func writeFile(name string, render func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}
