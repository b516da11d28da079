package gen

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"voxelito.dev/internal/gen/palette"
	"voxelito.dev/internal/gen/tuning"
)

func newTestEngine() *Engine {
	return NewEngine(palette.Default(), tuning.Defaults(), nil)
}

func raw(ss ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(ss))
	for i, s := range ss {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestScene_BoxFillIsExact(t *testing.T) {
	e := newTestEngine()
	res := e.Scene(raw(`{"type":"box","position":[0,0,0],"size":[64,32,64],"material":"grass"}`))

	if res.ShapesOK != 1 || res.ShapesSkipped != 0 {
		t.Fatalf("shapes ok/skipped = %d/%d, want 1/0", res.ShapesOK, res.ShapesSkipped)
	}
	// 64x32x64 covers exactly four chunks, each one uniform run of grass.
	if res.Chunks != 4 || len(res.Records) != 4 {
		t.Fatalf("chunks = %d, want 4", res.Chunks)
	}
	for _, r := range res.Records {
		if r.RLEData != "1:32768" {
			t.Fatalf("chunk %v rle = %q, want uniform grass", r.Position, r.RLEData)
		}
	}
}

func TestScene_BadShapesAreSkipped(t *testing.T) {
	e := newTestEngine()
	res := e.Scene(raw(
		`{"type":"box","position":[0,0,0],"size":[2,2,2],"material":"stone"}`,
		`{"type":"torus","center":[0,0,0]}`,
		`{"type":"cylinder","base":[0,0,0],"radius":1,"height":2,"axis":"w","material":"metal"}`,
	))
	if res.ShapesOK != 1 || res.ShapesSkipped != 2 {
		t.Fatalf("shapes ok/skipped = %d/%d, want 1/2", res.ShapesOK, res.ShapesSkipped)
	}
	if res.Chunks == 0 {
		t.Fatal("surviving shape produced no chunks")
	}
}

func TestScene_EmptySceneEmptyResult(t *testing.T) {
	res := newTestEngine().Scene(nil)
	if res.Chunks != 0 || len(res.Records) != 0 {
		t.Fatalf("empty scene produced %d chunks", res.Chunks)
	}
}

func TestScene_DetailPassRetagsDirt(t *testing.T) {
	e := newTestEngine()
	// Exposed dirt at x=1 has noise 0.93, above the default threshold.
	res := e.Scene(raw(`{"type":"box","position":[1,0,0],"size":[1,1,1],"material":"dirt"}`))
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	// One air voxel, the retagged grass voxel, then air to the end.
	if got := res.Records[0].RLEData; got != "0:1,1:1,0:32766" {
		t.Fatalf("rle = %q, want dirt retagged to grass", got)
	}
}

func TestScene_Idempotent(t *testing.T) {
	e := newTestEngine()
	scene := raw(`{"type":"tree","base":[5,0,5],"height":8,"variant":"oak"}`)
	a := e.Scene(scene)
	b := e.Scene(scene)
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Fatal("same scene produced different records")
	}
}

func TestIntent_UnknownToken(t *testing.T) {
	_, err := newTestEngine().Intent("castle", 1)
	if !errors.Is(err, ErrUnknownIntent) {
		t.Fatalf("err = %v, want ErrUnknownIntent", err)
	}
}

func TestIntent_SeedEchoedAndDeterministic(t *testing.T) {
	e := newTestEngine()
	a, err := e.Intent(IntentCity, 7)
	if err != nil {
		t.Fatal(err)
	}
	if a.Seed != 7 {
		t.Fatalf("seed = %d, want 7", a.Seed)
	}
	b, _ := e.Intent(IntentCity, 7)
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Fatal("same seed produced different cities")
	}
	if a.Chunks == 0 {
		t.Fatal("city produced no chunks")
	}
}

func TestIntent_ZeroSeedPicksOne(t *testing.T) {
	res, err := newTestEngine().Intent(IntentVillage, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Seed == 0 {
		t.Fatal("zero seed not replaced")
	}
}

func TestIntent_ForestDeterministic(t *testing.T) {
	e := newTestEngine()
	a, err := e.Intent(IntentForest, 99)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := e.Intent(IntentForest, 99)
	if !reflect.DeepEqual(a.Records, b.Records) {
		t.Fatal("same seed produced different forests")
	}
	// The pad alone covers the city footprint's ground chunks.
	if a.Chunks < 100 {
		t.Fatalf("forest touched %d chunks, want at least the 10x10 pad", a.Chunks)
	}
}
