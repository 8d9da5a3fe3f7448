// Package pipeline orchestrates the publication run: load the merged
// DH+HCRIS dataset, reconcile attributes, apply manual overrides, and write
// the published outputs.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/carecap/hospcap-cli/internal/config"
	"github.com/carecap/hospcap-cli/internal/export"
	"github.com/carecap/hospcap-cli/internal/hospgeo"
	"github.com/carecap/hospcap-cli/internal/model"
	"github.com/carecap/hospcap-cli/internal/override"
	"github.com/carecap/hospcap-cli/internal/reconcile"
	"github.com/carecap/hospcap-cli/internal/store"
)

// Pipeline runs the publish flow with its dependencies injected.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	manifest *model.ExportManifest
}

// New creates a Pipeline. A nil store disables the run ledger.
func New(cfg *config.Config, st store.Store, manifest *model.ExportManifest) *Pipeline {
	if manifest == nil {
		manifest = model.DefaultManifest()
	}
	return &Pipeline{cfg: cfg, store: st, manifest: manifest}
}

// Run executes one publish: transform, override, export, and record.
func (p *Pipeline) Run(ctx context.Context) (*model.PublishRun, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	run := &model.PublishRun{
		ID:           uuid.New().String(),
		Status:       model.RunStatusComplete,
		StartedAt:    time.Now().UTC(),
		ConfigDigest: p.cfg.Digest(),
	}

	facilities, stats, err := p.publish(run)
	run.FinishedAt = time.Now().UTC()
	if err != nil {
		run.Status = model.RunStatusFailed
		run.Error = err.Error()
	} else {
		run.OverridesApplied = stats.Applied
		run.NewFacilities = stats.NewFacilities
		log.Info("publish complete",
			zap.Int("facilities", len(facilities)),
			zap.Int("overrides_applied", stats.Applied),
			zap.Int("new_facilities", stats.NewFacilities),
			zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
		)
	}

	if p.store != nil {
		if recErr := p.store.RecordRun(ctx, run); recErr != nil {
			log.Warn("failed to record publish run", zap.Error(recErr))
		}
	}

	return run, err
}

func (p *Pipeline) publish(run *model.PublishRun) ([]*model.Facility, override.MergeStats, error) {
	var stats override.MergeStats

	fc, err := hospgeo.LoadCollection(p.cfg.Data.BasePath())
	if err != nil {
		return nil, stats, eris.Wrapf(err, "pipeline: load base dataset %s", p.cfg.Data.BasePath())
	}
	facilities := hospgeo.Facilities(fc)
	run.BaseFacilities = len(facilities)
	zap.L().Info("loaded base dataset",
		zap.String("path", p.cfg.Data.BasePath()),
		zap.Int("facilities", len(facilities)),
	)

	if err := p.transform(facilities); err != nil {
		return nil, stats, err
	}

	tbl, err := override.Load(p.cfg.Data.OverridePath(), p.manifest)
	if err != nil {
		return nil, stats, eris.Wrapf(err, "pipeline: load overrides %s", p.cfg.Data.OverridePath())
	}
	facilities, stats = override.Merge(facilities, tbl)

	if err := p.export(run, facilities); err != nil {
		return nil, stats, err
	}

	return facilities, stats, nil
}

// transform rewrites each facility's raw attribute map into the published
// schema: identity, direct-copy columns, then reconciled values with
// provenance. Raw columns do not survive.
func (p *Pipeline) transform(facilities []*model.Facility) error {
	seen := make(map[string]int, len(facilities))

	for i, f := range facilities {
		id := model.CanonicalID(f.Attrs[model.RawDHObjectID])
		if id == "" {
			return eris.Errorf("pipeline: facility %d (%q) has no %s",
				i, model.CanonicalID(f.Attrs[model.RawDHName]), model.RawDHObjectID)
		}
		if prev, dup := seen[id]; dup {
			return eris.Errorf("pipeline: duplicate %s %s at records %d and %d",
				model.RawDHObjectID, id, prev, i)
		}
		seen[id] = i

		results, err := reconcile.Facility(f.Attrs, p.cfg.Reconcile.StaffedBedWarnThreshold)
		if err != nil {
			return err
		}

		attrs := make(map[string]any, len(p.manifest.Columns))
		attrs[model.ColCCMID] = id
		for _, m := range model.DirectMap {
			if v, ok := f.Attrs[m.Raw]; ok {
				attrs[m.Out] = v
			} else {
				attrs[m.Out] = nil
			}
		}
		for _, attr := range model.ComputedAttrs {
			res := results[attr]
			attrs[attr] = res.Value
			attrs[model.SourceCol(attr)] = res.Source
		}
		f.Attrs = attrs
	}

	return nil
}

// export writes the published artifacts in parallel. Each writer is atomic
// on its own file; a failure in any aborts the run, and the run record only
// claims paths once every writer has landed.
func (p *Pipeline) export(run *model.PublishRun, facilities []*model.Facility) error {
	geojsonPath := p.cfg.Export.GeoJSONPath()
	csvPath := p.cfg.Export.CSVPath()
	var shapefilePath string
	if p.cfg.Export.Shapefile {
		shapefilePath = p.cfg.Export.ShapefilePath()
	}

	var g errgroup.Group
	g.Go(func() error {
		return export.WriteGeoJSON(geojsonPath, facilities)
	})
	g.Go(func() error {
		return export.WriteCSV(csvPath, facilities, p.manifest)
	})
	if shapefilePath != "" {
		g.Go(func() error {
			return export.WriteShapefile(shapefilePath, facilities, p.manifest)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	run.GeoJSONPath = geojsonPath
	run.CSVPath = csvPath
	run.ShapefilePath = shapefilePath
	return nil
}
