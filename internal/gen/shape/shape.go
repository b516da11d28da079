// Package shape rasterizes the closed set of scene primitives into a voxel
// store. Every primitive is a struct with one Rasterize method; JSON scenes
// pick the variant through the "type" discriminator. Geometry errors stay
// local to the shape that caused them.
package shape

import (
	"encoding/json"
	"fmt"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/voxel"
)

// Shape kinds (the wire discriminators).
const (
	KindBox      = "box"
	KindSphere   = "sphere"
	KindPyramid  = "pyramid"
	KindCylinder = "cylinder"
	KindLine     = "line"
	KindWedge    = "wedge"
	KindTree     = "tree"
	KindHouse    = "house"
	KindFlower   = "flower"
	KindShrub    = "shrub"
)

// Shape is the closed union of scene primitives. Later shapes overwrite
// earlier ones where they overlap; there is no other ordering dependence.
type Shape interface {
	Kind() string
	Rasterize(st *voxel.Store, pal *palette.Palette) error
}

type header struct {
	Type string `json:"type"`
}

// Decode picks the concrete shape for one scene entry. Unknown
// discriminators are an error; the caller decides whether that skips the
// entry or fails the batch.
func Decode(raw json.RawMessage) (Shape, error) {
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("shape: %w", err)
	}
	switch h.Type {
	case KindBox:
		var s Box
		return &s, unmarshal(raw, &s)
	case KindSphere:
		var s Sphere
		return &s, unmarshal(raw, &s)
	case KindPyramid:
		var s Pyramid
		return &s, unmarshal(raw, &s)
	case KindCylinder:
		var s Cylinder
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Axis == "" {
			s.Axis = "y"
		}
		return &s, nil
	case KindLine:
		var s Line
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Width == 0 {
			s.Width = 1
		}
		return &s, nil
	case KindWedge:
		var s Wedge
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Orientation == "" {
			s.Orientation = "xp"
		}
		return &s, nil
	case KindTree:
		var s Tree
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Variant == "" {
			s.Variant = "oak"
		}
		return &s, nil
	case KindHouse:
		var s House
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Material == "" {
			s.Material = "brick"
		}
		if s.Roof == "" {
			s.Roof = "roof"
		}
		return &s, nil
	case KindFlower:
		var s Flower
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Material == "" {
			s.Material = "flower_red"
		}
		return &s, nil
	case KindShrub:
		var s Shrub
		if err := unmarshal(raw, &s); err != nil {
			return nil, err
		}
		if s.Material == "" {
			s.Material = "shrub"
		}
		return &s, nil
	case "":
		return nil, fmt.Errorf("shape: missing type")
	default:
		return nil, fmt.Errorf("shape: unknown type %q", h.Type)
	}
}

func unmarshal(raw json.RawMessage, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("shape: %w", err)
	}
	return nil
}
