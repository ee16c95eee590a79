package timeline

import "fmt"

// Category identifies what kind of event a record describes.
//
// The set is closed: it mirrors the labels the capture tool emits for
// Sonic Unleashed, nothing more. RunStart and RunEnd mark the run
// boundaries; every other category is a load screen.
type Category int

const (
	RunStart Category = iota
	RunEnd
	MenuLoad
	HubLoad
	LabLoad
	CutsceneLoad
	LevelLoad
	LevelHubLoad
	BossLoad
	TransformationLoad
	RespawnLoad
	MissionLoad
	DarkGaiaLoad

	numCategories
)

// categoryLabels maps each category to the exact text the capture tool
// writes. Matching is case-sensitive; "menu load" is not a category.
var categoryLabels = [numCategories]string{
	RunStart:           "Run start",
	RunEnd:             "Run end",
	MenuLoad:           "Menu load",
	HubLoad:            "Hub load",
	LabLoad:            "Lab load",
	CutsceneLoad:       "Cutscene load",
	LevelLoad:          "Level load",
	LevelHubLoad:       "Level hub load",
	BossLoad:           "Boss load",
	TransformationLoad: "Transformation load",
	RespawnLoad:        "Respawn load",
	MissionLoad:        "Mission load",
	DarkGaiaLoad:       "Dark Gaia load",
}

// labelCategories is the reverse of categoryLabels.
var labelCategories = func() map[string]Category {
	m := make(map[string]Category, numCategories)
	for c, label := range categoryLabels {
		m[label] = Category(c)
	}
	return m
}()

// ParseCategory resolves a log label to its category. The match is exact.
func ParseCategory(label string) (Category, error) {
	c, ok := labelCategories[label]
	if !ok {
		return 0, &ParseError{Kind: UnknownCategory, Detail: label}
	}
	return c, nil
}

// Label returns the text the capture tool uses for the category. This is
// also the display name in the report.
func (c Category) Label() string {
	if c < 0 || c >= numCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryLabels[c]
}

func (c Category) String() string { return c.Label() }

// IsBoundary reports whether the category marks a run boundary rather
// than a load screen.
func (c Category) IsBoundary() bool {
	return c == RunStart || c == RunEnd
}

// LoadCategories returns the load categories in their fixed order. The
// report and the aggregator both iterate categories in this order.
func LoadCategories() []Category {
	cats := make([]Category, 0, numCategories-2)
	for c := Category(0); c < numCategories; c++ {
		if !c.IsBoundary() {
			cats = append(cats, c)
		}
	}
	return cats
}
