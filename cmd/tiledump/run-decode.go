package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-tiles/engine/mesh"
	"github.com/Carmen-Shannon/oxy-tiles/engine/renderer"
	"github.com/Carmen-Shannon/oxy-tiles/engine/tileio"
	"github.com/urfave/cli"
)

const maxFeatures = 0xffff

type meshSummary struct {
	Type      string `json:"type"`
	Vertices  int    `json:"vertices"`
	Triangles int    `json:"triangles,omitempty"`
	Polylines int    `json:"polylines,omitempty"`
	Colors    int    `json:"colors"`
	Normals   bool   `json:"normals"`
	UVs       bool   `json:"uvs"`
}

type b3dmSummary struct {
	FeatureTableJSON   uint32 `json:"feature_table_json"`
	FeatureTableBinary uint32 `json:"feature_table_binary"`
	BatchTableJSON     uint32 `json:"batch_table_json"`
	BatchTableBinary   uint32 `json:"batch_table_binary"`
}

type tileSummary struct {
	File        string        `json:"file"`
	Container   string        `json:"container"`
	GltfVersion uint32        `json:"gltf_version"`
	GltfLength  uint32        `json:"gltf_length"`
	SceneLength uint32        `json:"scene_length"`
	B3dm        *b3dmSummary  `json:"b3dm,omitempty"`
	Meshes      []meshSummary `json:"meshes"`
	Failed      int           `json:"failed"`
	Features    int           `json:"features,omitempty"`
	Graphics    int           `json:"graphics,omitempty"`
	GPUBytes    uint64        `json:"gpu_bytes,omitempty"`
	Error       string        `json:"error,omitempty"`
}

func runDecode(c *cli.Context) error {
	m := c.App.Metadata["config"].(*metadata)

	if c.NArg() == 0 {
		return errors.New("missing tile file")
	}

	var rs renderer.RenderSystem
	if c.Bool("upload") {
		var release func()
		rs, release = openRenderSystem(m, c.Bool("gpu"))
		defer release()
	}

	failed := 0
	var out []tileSummary
	for _, file := range c.Args() {
		s := decodeFile(m, file, c.Bool("features"), rs)
		if s.Error != "" {
			failed++
		}
		out = append(out, s)
	}

	if err := printJSON(m.w, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tiles could not be decoded", failed, len(out))
	}
	return nil
}

func decodeFile(m *metadata, file string, features bool, rs renderer.RenderSystem) tileSummary {
	s := tileSummary{File: file}

	data, err := os.ReadFile(file)
	if err != nil {
		s.Error = err.Error()
		return s
	}

	options := []tileio.ReaderBuilderOption{tileio.WithLogger(m.logger)}
	if features {
		options = append(options, tileio.WithFeatureTable(mesh.NewFeatureTable(maxFeatures)))
	}
	content, err := tileio.Decode(data, options...)
	if err != nil {
		s.Error = err.Error()
		return s
	}

	h := content.Header
	s.Container = h.Kind.String()
	s.GltfVersion = h.Gltf.Version
	s.GltfLength = h.Gltf.GltfLength
	s.SceneLength = h.Gltf.SceneStrLength
	if h.Batched != nil {
		s.B3dm = &b3dmSummary{
			FeatureTableJSON:   h.Batched.FeatureTableJSONLength,
			FeatureTableBinary: h.Batched.FeatureTableBinaryLength,
			BatchTableJSON:     h.Batched.BatchTableJSONLength,
			BatchTableBinary:   h.Batched.BatchTableBinaryLength,
		}
	}
	s.Failed = content.Failed
	if content.FeatureTable != nil {
		s.Features = content.FeatureTable.Len()
	}

	for i, msh := range content.Meshes {
		s.Meshes = append(s.Meshes, meshSummary{
			Type:      msh.Type.String(),
			Vertices:  msh.VertexCount(),
			Triangles: msh.TriangleCount(),
			Polylines: len(msh.Polylines),
			Colors:    msh.ColorMap.Len(),
			Normals:   len(msh.Normals) > 0,
			UVs:       len(msh.UVParams) > 0,
		})
		if rs == nil {
			continue
		}
		g, err := rs.CreateGraphic(msh, fmt.Sprintf("%s#%d", file, i))
		if err != nil {
			m.logger.Warn("graphic not created", "file", file, "mesh", i, "error", err)
			continue
		}
		s.Graphics++
		s.GPUBytes += g.ByteSize()
		g.Release()
	}
	return s
}
