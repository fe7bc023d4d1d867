package models

type DraftState string

const (
	DraftCapturing DraftState = "capturing"
	DraftAnalyzing DraftState = "analyzing"
	DraftDrafting  DraftState = "drafting"
)

// DraftFields are the editable attributes of an item being created.
type DraftFields struct {
	Name        string   `json:"name" validate:"max=100"`
	Category    Category `json:"category" validate:"omitempty,category"`
	Season      Season   `json:"season" validate:"omitempty,season"`
	Color       string   `json:"color" validate:"max=50"`
	Location    string   `json:"location" validate:"max=100"`
	Description string   `json:"description" validate:"max=500"`
}

// NewDraftFields returns the values a fresh form starts with.
func NewDraftFields() DraftFields {
	return DraftFields{
		Category: CategoryTop,
		Season:   SeasonAllSeason,
		Location: SuggestedLocations[0],
	}
}

// CreationDraft is the per-user item creation workflow state.
type CreationDraft struct {
	State     DraftState  `json:"state"`
	AttemptID string      `json:"attemptId,omitempty"`
	ImageURL  string      `json:"imageUrl,omitempty"`
	Fields    DraftFields `json:"fields"`
	Notice    string      `json:"notice,omitempty"`
	// StartedAt is the unix millisecond time analysis began.
	StartedAt int64 `json:"startedAt,omitempty"`
}

func NewCreationDraft() *CreationDraft {
	return &CreationDraft{State: DraftCapturing, Fields: NewDraftFields()}
}

type StylistState string

const (
	StylistIdle         StylistState = "idle"
	StylistRecommending StylistState = "recommending"
	StylistVisualizing  StylistState = "visualizing"
)

// StylingSession is the per-user recommendation and visualization state.
type StylingSession struct {
	State            StylistState      `json:"state"`
	AttemptID        string            `json:"attemptId,omitempty"`
	Occasion         string            `json:"occasion,omitempty"`
	Weather          string            `json:"weather,omitempty"`
	Suggestion       *OutfitSuggestion `json:"suggestion,omitempty"`
	VisualizationURL string            `json:"visualizationUrl,omitempty"`
	Notice           string            `json:"notice,omitempty"`
	StartedAt        int64             `json:"startedAt,omitempty"`
}

func NewStylingSession() *StylingSession {
	return &StylingSession{State: StylistIdle}
}
