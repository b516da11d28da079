package palette

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Air is always palette id 0: freshly allocated chunks read as air, and
// writing air is how callers erase.
const Air uint16 = 0

// DefaultMaterial is the fallback for material names that do not resolve.
const DefaultMaterial = "stone"

type Material struct {
	Name        string `json:"name"`
	Color       string `json:"color"`
	Description string `json:"description,omitempty"`
}

// Palette is the fixed material table shared by every consumer of a
// generation session. Names, ids and colors are immutable after load.
type Palette struct {
	Names  []string
	Index  map[string]uint16
	Defs   []Material
	Digest string
}

var defaults = []Material{
	{Name: "air", Color: "#000000", Description: "Empty space (use to clear areas)"},
	{Name: "grass", Color: "#00ff00", Description: "Green grassy terrain"},
	{Name: "stone", Color: "#808080", Description: "Gray natural stone"},
	{Name: "dirt", Color: "#964B00", Description: "Brown soil"},
	{Name: "water", Color: "#4fa4b8", Description: "Blue water"},
	{Name: "wood", Color: "#6d4c41", Description: "Brown wood log"},
	{Name: "leaves", Color: "#4caf50", Description: "Green leaves"},
	{Name: "sand", Color: "#fdd835", Description: "Yellow sand"},
	{Name: "brick", Color: "#b71c1c", Description: "Red brick wall"},
	{Name: "roof", Color: "#5d4037", Description: "Dark brown roofing"},
	{Name: "glass", Color: "#81d4fa", Description: "Transparent glass"},
	{Name: "plank", Color: "#ffcc80", Description: "Light wood planks"},
	{Name: "concrete", Color: "#9e9e9e", Description: "Gray concrete"},
	{Name: "asphalt", Color: "#424242", Description: "Dark gray asphalt"},
	{Name: "road_white", Color: "#eeeeee", Description: "Asphalt + white line"},
	{Name: "road_yellow", Color: "#ffeb3b", Description: "Asphalt + yellow line"},
	{Name: "neon_blue", Color: "#00e5ff", Description: "Glowing blue"},
	{Name: "neon_pink", Color: "#f50057", Description: "Glowing pink"},
	{Name: "metal", Color: "#607d8b", Description: "Shiny metal"},
	{Name: "snow", Color: "#ffffff", Description: "White snow"},
	{Name: "lava", Color: "#ff5722", Description: "Glowing lava"},
	{Name: "flower_red", Color: "#f44336", Description: "Red Flower"},
	{Name: "flower_yellow", Color: "#ffeb3b", Description: "Yellow Flower"},
	{Name: "flower_purple", Color: "#9c27b0", Description: "Purple Flower"},
	{Name: "shrub", Color: "#388e3c", Description: "Green shrub/bush"},
}

// Default returns the built-in material table.
func Default() *Palette {
	p, err := build(defaults)
	if err != nil {
		// The built-in table is checked by tests; a bad entry is a programming error.
		panic(err)
	}
	return p
}

// Load reads a material table from a JSON file (array of materials).
func Load(path string) (*Palette, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var defs []Material
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("materials.json: %w", err)
	}
	return build(defs)
}

func build(defs []Material) (*Palette, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("materials: empty table")
	}

	// Ensure air exists and occupies palette id 0.
	ordered := make([]Material, 0, len(defs))
	var airDef *Material
	for i := range defs {
		if defs[i].Name == "" {
			return nil, fmt.Errorf("materials: empty name at %d", i)
		}
		if defs[i].Name == "air" {
			airDef = &defs[i]
		}
	}
	if airDef == nil {
		return nil, fmt.Errorf("materials: missing air")
	}
	ordered = append(ordered, *airDef)
	for i := range defs {
		if defs[i].Name != "air" {
			ordered = append(ordered, defs[i])
		}
	}

	p := &Palette{
		Names: make([]string, len(ordered)),
		Index: make(map[string]uint16, len(ordered)),
		Defs:  ordered,
	}
	for i, d := range ordered {
		if _, dup := p.Index[d.Name]; dup {
			return nil, fmt.Errorf("materials: duplicate name %q", d.Name)
		}
		p.Names[i] = d.Name
		p.Index[d.Name] = uint16(i)
	}
	if _, ok := p.Index[DefaultMaterial]; !ok {
		return nil, fmt.Errorf("materials: missing %s", DefaultMaterial)
	}

	namesJSON, _ := json.Marshal(p.Names)
	p.Digest = sha256Hex(namesJSON)
	return p, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ID returns the id for name, reporting whether the name is known.
func (p *Palette) ID(name string) (uint16, bool) {
	id, ok := p.Index[name]
	return id, ok
}

// Resolve maps a material name to its id. Unknown or empty names fall back
// to the default material instead of failing the shape that named them.
func (p *Palette) Resolve(name string) uint16 {
	if id, ok := p.Index[name]; ok {
		return id
	}
	return p.Index[DefaultMaterial]
}

// Name returns the material name for id, or "air" style sentinel for out of
// range ids (codec output never produces these).
func (p *Palette) Name(id uint16) string {
	if int(id) >= len(p.Names) {
		return p.Names[0]
	}
	return p.Names[id]
}

func (p *Palette) Len() int { return len(p.Names) }
