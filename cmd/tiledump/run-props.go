package main

import (
	"github.com/Carmen-Shannon/oxy-tiles/engine/tile"
	"github.com/urfave/cli"
)

func loadProps(file string) (tile.Props, error) {
	if file == "" {
		return tile.DefaultProps(), nil
	}
	return tile.LoadProps(file)
}

func runProps(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	props, err := loadProps(c.String("config"))
	if err != nil {
		return err
	}
	data, err := props.MarshalTOML()
	if err != nil {
		return err
	}
	_, err = m.w.Write(data)
	return err
}
