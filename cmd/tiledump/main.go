package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
	"github.com/urfave/cli"
)

type metadata struct {
	verbose bool
	logger  *slog.Logger
	w       io.Writer
	e       io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero"

func main() {
	app := cli.NewApp()
	app.Name = "tiledump"
	app.Usage = "inspect iModel tile content"
	app.Version = version

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " log decode warnings and frame activity",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:      "decode",
			Usage:     "decode glTF or b3dm tiles and print a summary",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "features, f",
					Usage: " collect per-vertex features from _BATCHID",
				},
				cli.BoolFlag{
					Name:  "upload, u",
					Usage: " create graphics for the meshes and report their size",
				},
				cli.BoolFlag{
					Name:  "gpu",
					Usage: " upload into a WebGPU device instead of host memory",
				},
			},
			Action: runDecode,
		},
		{
			Name:  "props",
			Usage: "print the effective tile admin settings as TOML",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Value: "",
					Usage: " read settings from `FILE`",
				},
			},
			Action: runProps,
		},
		{
			Name:      "view",
			Usage:     "load a tile tree from a directory and report residency",
			ArgsUsage: "DIR TREE",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Value: "",
					Usage: " read tile admin settings from `FILE`",
				},
				cli.IntFlag{
					Name:  "depth, d",
					Value: 2,
					Usage: " leaf `DEPTH` of the tree",
				},
				cli.Float64Flag{
					Name:  "size, s",
					Value: 1,
					Usage: " edge length of the cubic tree volume",
				},
				cli.StringFlag{
					Name:  "ext",
					Value: ".b3dm",
					Usage: " tile file `EXTENSION`",
				},
				cli.DurationFlag{
					Name:  "timeout, t",
					Value: 0,
					Usage: " stop after `DURATION` even if tiles are still loading",
				},
				cli.BoolFlag{
					Name:  "gpu",
					Usage: " upload into a WebGPU device instead of host memory",
				},
			},
			Action: runView,
		},
	}

	app.Before = func(c *cli.Context) error {
		level := slog.LevelError
		if c.GlobalBool("verbose") {
			level = slog.LevelDebug
		}
		app.Metadata = map[string]interface{}{
			"config": &metadata{
				verbose: c.GlobalBool("verbose"),
				logger:  slog.New(slog.NewTextHandler(app.ErrWriter, &slog.HandlerOptions{Level: level})),
				w:       app.Writer,
				e:       app.ErrWriter,
			},
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

// openRenderSystem returns a WebGPU render system when gpu is set and a device can be opened,
// and the headless one otherwise. release frees the device after every graphic is released.
func openRenderSystem(m *metadata, gpu bool) (rs renderer.RenderSystem, release func()) {
	if gpu {
		dev, err := renderer.OpenDevice(false)
		if err == nil {
			return dev.RenderSystem(renderer.WithLogger(m.logger), renderer.WithLabelPrefix("tiledump ")), dev.Release
		}
		m.logger.Warn("falling back to headless graphics", "error", err)
	}
	return renderer.NewHeadlessRenderSystem(renderer.WithLogger(m.logger)), func() {}
}
