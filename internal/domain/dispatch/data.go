package dispatch

import "github.com/okian/capperchat/internal/domain/model"

// RecommendationData backs the recommendation widget. Sport is empty when
// the message named none.
type RecommendationData struct {
	Capper       model.Handicapper   `json:"capper"`
	Sport        string              `json:"sport,omitempty"`
	Alternatives []model.Handicapper `json:"alternatives"`
}

// NoMatchData is returned when a sport filter leaves nobody.
type NoMatchData struct {
	AvailableSports []string `json:"availableSports"`
}

// PricingData backs the package list widget.
type PricingData struct {
	Packages       []model.Package `json:"packages"`
	RequestedPrice float64         `json:"requestedPrice"`
	TotalFound     int             `json:"totalFound"`
}

type PerformanceData struct {
	TopPerformers  []model.Handicapper `json:"topPerformers"`
	AverageWinRate float64             `json:"averageWinRate"`
}

type ComparisonData struct {
	ComparedCappers []model.Handicapper `json:"comparedCappers"`
}

type GeneralData struct {
	Suggestions      []string `json:"suggestions"`
	AvailableIntents []string `json:"availableIntents"`
}
