package plugin

import (
	"context"
	"path/filepath"
	"time"

	"github.com/openfroyo/streamd/pkg/config"
	"github.com/openfroyo/streamd/pkg/telemetry"
)

// Load parses the configuration file at path and builds its components.
func (c *Catalog) Load(ctx context.Context, path string, opts ...BuildOption) (*Pipeline, error) {
	o := newBuildOptions(opts)
	name := filepath.Base(path)

	var root *config.Element
	err := telemetry.RecordParse(ctx, name, func() (int, error) {
		r, err := config.ReadFile(path, o.parseOptions()...)
		if err != nil {
			return 0, err
		}
		root = r
		return len(r.Children), nil
	})
	if err != nil {
		return nil, err
	}

	return c.Build(ctx, root, append(opts, WithSourceName(name))...)
}

// ReloadFunc receives the pipeline built from a changed file, or the error
// that prevented building it.
type ReloadFunc func(p *Pipeline, err error)

// Watch rebuilds the pipeline each time the file at path changes, until ctx
// is cancelled. A delay of zero uses config.DefaultReloadDelay.
func (c *Catalog) Watch(ctx context.Context, path string, delay time.Duration, fn ReloadFunc, opts ...BuildOption) error {
	o := newBuildOptions(opts)
	name := filepath.Base(path)
	buildOpts := append(opts, WithSourceName(name))

	w := config.NewWatcher(path, c.logger.WithFile(name).Zerolog(), o.parseOptions()...)
	if delay > 0 {
		w.SetDelay(delay)
	}

	return w.Watch(ctx, func(root *config.Element, err error) {
		var pipeline *Pipeline
		reloadErr := telemetry.RecordReload(ctx, name, func() (int, error) {
			if err != nil {
				return 0, err
			}
			p, buildErr := c.Build(ctx, root, buildOpts...)
			if buildErr != nil {
				return 0, buildErr
			}
			pipeline = p
			return len(p.Components), nil
		})
		fn(pipeline, reloadErr)
	})
}
