package main

import (
	"context"
	"errors"
	"time"

	"github.com/Carmen-Shannon/oxy-tiles/common"
	"github.com/Carmen-Shannon/oxy-tiles/engine"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile"
	"github.com/urfave/cli"
)

type viewSummary struct {
	Tree       string   `json:"tree"`
	Frames     int      `json:"frames"`
	Elapsed    string   `json:"elapsed"`
	Tiles      int      `json:"tiles"`
	Ready      int      `json:"ready"`
	Graphics   int      `json:"graphics"`
	GPUBytes   uint64   `json:"gpu_bytes"`
	Selected   []string `json:"selected"`
	TimedOut   bool     `json:"timed_out,omitempty"`
	Incomplete []string `json:"incomplete,omitempty"`
}

func runView(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if c.NArg() != 2 {
		return errors.New("expected DIR and TREE")
	}
	dir, treeID := c.Args().Get(0), c.Args().Get(1)

	props, err := loadProps(c.String("config"))
	if err != nil {
		return err
	}

	rs, release := openRenderSystem(m, c.Bool("gpu"))
	defer release()

	admin := tile.NewAdmin(tile.WithProps(props), tile.WithRenderSystem(rs), tile.WithLogger(m.logger))
	defer admin.Close()

	size := c.Float64("size")
	tree := tile.NewTree(treeID,
		common.NewRange(common.Point3d{0, 0, 0}, common.Point3d{size, size, size}),
		tile.WithMaxDepth(c.Int("depth")),
		tile.WithContentSource(tile.DirContentSource{Dir: dir, Ext: c.String("ext")}),
	)
	if err := admin.AddTree(tree); err != nil {
		return err
	}
	vp := tile.NewViewport(
		tile.WithViewportName("tiledump"),
		tile.WithEye(tree.Range().Center()),
		tile.WithViewedTrees(tree),
	)
	if err := admin.AddViewport(vp); err != nil {
		return err
	}

	ctx := context.Background()
	if timeout := c.Duration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	e := engine.NewEngine(
		engine.WithAdmin(admin),
		engine.WithLogger(m.logger),
		engine.WithProfiling(m.verbose),
	)
	frames := 0
	e.SetFrameCallback(func(now time.Time, stats tile.FrameStats) {
		frames++
		if stats.Requested > 0 || stats.Applied > 0 || vp.NeedsSelection() {
			return
		}
		if s := admin.Stats().Loader; s.Active == 0 && s.Queued == 0 {
			e.Quit()
		}
	})

	start := time.Now()
	err = e.Run(ctx)
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if err != nil && !timedOut {
		return err
	}

	stats := admin.Stats()
	out := viewSummary{
		Tree:     tree.Name(),
		Frames:   frames,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
		Tiles:    stats.Tiles,
		Ready:    stats.Ready,
		Graphics: stats.Render.Graphics,
		GPUBytes: stats.Render.Bytes,
		TimedOut: timedOut,
	}
	for _, t := range vp.Selected() {
		out.Selected = append(out.Selected, t.ID().String())
	}
	collectIncomplete(tree.RootTile(), &out.Incomplete)
	return printJSON(m.w, out)
}

// collectIncomplete lists tiles whose content is missing or still loading.
func collectIncomplete(t *tile.Tile, out *[]string) {
	switch t.Status() {
	case tile.NotFound, tile.Queued, tile.Loading:
		*out = append(*out, t.ID().String()+" "+t.Status().String())
	}
	for _, child := range t.Children() {
		collectIncomplete(child, out)
	}
}
