// Package tuning holds the generation knobs loaded from tuning.yaml.
// Missing fields fall back to the reference values, so a partial file only
// has to name what it changes.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	World   WorldTuning  `yaml:"world"`
	City    LayoutTuning `yaml:"city"`
	Village LayoutTuning `yaml:"village"`
	Forest  ForestTuning `yaml:"forest"`
	Detail  DetailTuning `yaml:"detail"`
	Limits  Limits       `yaml:"limits"`
	Server  ServerTuning `yaml:"server"`
}

type WorldTuning struct {
	Bound int `yaml:"bound"`
}

type LayoutTuning struct {
	GridWidth         int     `yaml:"grid_width"`
	GridDepth         int     `yaml:"grid_depth"`
	RoadProb          float64 `yaml:"road_prob"`
	ResidentialWeight float64 `yaml:"residential_weight"`
	CommercialWeight  float64 `yaml:"commercial_weight"`
	ParkWeight        float64 `yaml:"park_weight"`
	VisitFrac         float64 `yaml:"visit_frac"`
}

type ForestTuning struct {
	TreeProbPercent int `yaml:"tree_prob_percent"`
	CellSize        int `yaml:"cell_size"`
	MinHeight       int `yaml:"min_height"`
	MaxHeight       int `yaml:"max_height"`
}

type DetailTuning struct {
	Threshold float64 `yaml:"threshold"`
}

type Limits struct {
	MaxSceneShapes    int `yaml:"max_scene_shapes"`
	RateWindowSeconds int `yaml:"rate_window_seconds"`
	RateMaxRequests   int `yaml:"rate_max_requests"`
}

type ServerTuning struct {
	BatchChunks int `yaml:"batch_chunks"`
}

// Defaults is the reference configuration.
func Defaults() Tuning {
	var t Tuning
	t.applyDefaults()
	return t
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	t.applyDefaults()
	return t, nil
}

func (t *Tuning) applyDefaults() {
	if t.World.Bound <= 0 {
		t.World.Bound = 512
	}
	t.City.applyDefaults(10, 10, [3]float64{0.6, 0.2, 0.2})
	t.Village.applyDefaults(6, 6, [3]float64{0.7, 0.0, 0.3})
	if t.Forest.TreeProbPercent <= 0 {
		t.Forest.TreeProbPercent = 35
	}
	if t.Forest.CellSize <= 0 {
		t.Forest.CellSize = 8
	}
	if t.Forest.MinHeight <= 0 {
		t.Forest.MinHeight = 5
	}
	if t.Forest.MaxHeight <= 0 {
		t.Forest.MaxHeight = 7
	}
	if t.Detail.Threshold <= 0 {
		t.Detail.Threshold = 0.8
	}
	if t.Limits.MaxSceneShapes <= 0 {
		t.Limits.MaxSceneShapes = 512
	}
	if t.Limits.RateWindowSeconds <= 0 {
		t.Limits.RateWindowSeconds = 10
	}
	if t.Limits.RateMaxRequests <= 0 {
		t.Limits.RateMaxRequests = 5
	}
	if t.Server.BatchChunks <= 0 {
		t.Server.BatchChunks = 64
	}
}

func (l *LayoutTuning) applyDefaults(width, depth int, weights [3]float64) {
	if l.GridWidth <= 0 {
		l.GridWidth = width
	}
	if l.GridDepth <= 0 {
		l.GridDepth = depth
	}
	if l.RoadProb <= 0 {
		l.RoadProb = 0.4
	}
	// The weight triple defaults as a group so an explicit zero weight in a
	// partially weighted file survives.
	if l.ResidentialWeight <= 0 && l.CommercialWeight <= 0 && l.ParkWeight <= 0 {
		l.ResidentialWeight = weights[0]
		l.CommercialWeight = weights[1]
		l.ParkWeight = weights[2]
	}
	if l.VisitFrac <= 0 {
		l.VisitFrac = 0.2
	}
}
