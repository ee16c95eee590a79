package timeline

import (
	"errors"
	"testing"
	"time"
)

func TestBuild_Boundaries(t *testing.T) {
	events := []Event{
		{Category: RunStart, Start: 2 * time.Second, Line: 2},
		{Category: MenuLoad, Start: 5 * time.Second, End: 8 * time.Second, Load: 3 * time.Second, Line: 3},
		{Category: RunEnd, Start: 20 * time.Second, Line: 4},
	}

	tl, err := Build(events)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !tl.HasStart || tl.RunStart != 2*time.Second {
		t.Errorf("RunStart = %v (has=%v), want 2s", tl.RunStart, tl.HasStart)
	}
	if !tl.HasEnd || tl.RunEnd != 20*time.Second {
		t.Errorf("RunEnd = %v (has=%v), want 20s", tl.RunEnd, tl.HasEnd)
	}
	if len(tl.Events) != 3 {
		t.Errorf("Events length = %d, want 3 (boundaries keep their positions)", len(tl.Events))
	}
}

func TestBuild_FirstOccurrenceWins(t *testing.T) {
	events := []Event{
		{Category: RunStart, Start: 1 * time.Second, Line: 2},
		{Category: RunStart, Start: 9 * time.Second, Line: 3},
		{Category: RunEnd, Start: 30 * time.Second, Line: 4},
		{Category: RunEnd, Start: 99 * time.Second, Line: 5},
	}

	tl, err := Build(events)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if tl.RunStart != 1*time.Second {
		t.Errorf("RunStart = %v, want 1s (duplicates ignored)", tl.RunStart)
	}
	if tl.RunEnd != 30*time.Second {
		t.Errorf("RunEnd = %v, want 30s (duplicates ignored)", tl.RunEnd)
	}
}

func TestBuild_MissingBoundaries(t *testing.T) {
	events := []Event{
		{Category: LevelLoad, Start: 5 * time.Second, End: 6 * time.Second, Load: time.Second, Line: 2},
	}

	tl, err := Build(events)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if tl.HasStart {
		t.Error("HasStart = true, want false")
	}
	if tl.HasEnd {
		t.Error("HasEnd = true, want false")
	}
}

func TestBuild_NegativeLoadFatal(t *testing.T) {
	events := []Event{
		{Category: RunStart, Line: 2},
		{Category: BossLoad, Start: 8 * time.Second, End: 5 * time.Second, Load: -3 * time.Second, Line: 3},
	}

	_, err := Build(events)
	if err == nil {
		t.Fatal("Build accepted a negative load duration")
	}
	var nerr *NegativeLoadError
	if !errors.As(err, &nerr) {
		t.Fatalf("error type = %T, want *NegativeLoadError", err)
	}
	if nerr.Line != 3 {
		t.Errorf("Line = %d, want 3", nerr.Line)
	}
	if nerr.Category != BossLoad {
		t.Errorf("Category = %v, want BossLoad", nerr.Category)
	}
}

func TestBuild_Empty(t *testing.T) {
	tl, err := Build(nil)
	if err != nil {
		t.Fatalf("Build(nil) error: %v", err)
	}
	if tl.HasStart || tl.HasEnd || len(tl.Events) != 0 {
		t.Errorf("Build(nil) = %+v, want empty timeline", tl)
	}
}

func TestTimeline_Loads(t *testing.T) {
	tl, err := Build([]Event{
		{Category: RunStart, Line: 2},
		{Category: MenuLoad, Start: 5 * time.Second, End: 8 * time.Second, Load: 3 * time.Second, Line: 3},
		{Category: LevelLoad, Start: 10 * time.Second, End: 11 * time.Second, Load: time.Second, Line: 4},
		{Category: RunEnd, Start: 20 * time.Second, Line: 5},
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	loads := tl.Loads()
	if len(loads) != 2 {
		t.Fatalf("Loads() length = %d, want 2", len(loads))
	}
	if loads[0].Category != MenuLoad || loads[1].Category != LevelLoad {
		t.Errorf("Loads() order = %v, %v; want MenuLoad, LevelLoad", loads[0].Category, loads[1].Category)
	}
}

func TestLoadCategories(t *testing.T) {
	cats := LoadCategories()
	if len(cats) != 11 {
		t.Fatalf("len(LoadCategories()) = %d, want 11", len(cats))
	}
	if cats[0] != MenuLoad {
		t.Errorf("first load category = %v, want MenuLoad", cats[0])
	}
	if cats[len(cats)-1] != DarkGaiaLoad {
		t.Errorf("last load category = %v, want DarkGaiaLoad", cats[len(cats)-1])
	}
	for _, c := range cats {
		if c.IsBoundary() {
			t.Errorf("LoadCategories() contains boundary %v", c)
		}
	}
}

func TestCategory_IsBoundary(t *testing.T) {
	if !RunStart.IsBoundary() || !RunEnd.IsBoundary() {
		t.Error("RunStart/RunEnd must be boundaries")
	}
	if MenuLoad.IsBoundary() || DarkGaiaLoad.IsBoundary() {
		t.Error("load categories must not be boundaries")
	}
}

func TestCategory_LabelOutOfRange(t *testing.T) {
	got := Category(99).Label()
	if got != "Category(99)" {
		t.Errorf("Label() = %q, want %q", got, "Category(99)")
	}
}
