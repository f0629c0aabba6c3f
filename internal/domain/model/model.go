// Package model contains domain models passed between layers.
package model

// Handicapper is a sports-betting analyst listed on the marketplace.
type Handicapper struct {
	ID                string            `json:"id" yaml:"id"`
	Name              string            `json:"name" yaml:"name"`
	Nickname          string            `json:"nickname,omitempty" yaml:"nickname"`
	Bio               string            `json:"bio,omitempty" yaml:"bio"`
	Specialties       []string          `json:"specialties" yaml:"specialties"`
	YearsExperience   int               `json:"yearsExperience" yaml:"yearsExperience"`
	CurrentStats      Stats             `json:"currentStats" yaml:"currentStats"`
	RecentPerformance RecentPerformance `json:"recentPerformance" yaml:"recentPerformance"`
	Achievements      []string          `json:"achievements" yaml:"achievements"`
}

// Stats are a handicapper's lifetime numbers. WinPercentage is in [0,100].
type Stats struct {
	WinPercentage float64 `json:"winPercentage" yaml:"winPercentage"`
	TotalPicks    int     `json:"totalPicks" yaml:"totalPicks"`
	UnitsProfit   float64 `json:"unitsProfit" yaml:"unitsProfit"`
	ROI           float64 `json:"roi" yaml:"roi"`
}

// RecentPerformance holds rolling-window results.
type RecentPerformance struct {
	Last7Days Window `json:"last7Days" yaml:"last7Days"`
}

// Window is a record such as "12-5" and the units won over it.
type Window struct {
	Record string `json:"record" yaml:"record"`
	Units  Units  `json:"units" yaml:"units"`
}

// Package is a purchasable picks bundle. CapperID references Handicapper.ID
// but is not enforced.
type Package struct {
	ID          string   `json:"id" yaml:"id"`
	CapperID    string   `json:"capperId" yaml:"capperId"`
	Title       string   `json:"title" yaml:"title"`
	Sport       string   `json:"sport" yaml:"sport"`
	Type        string   `json:"type" yaml:"type"`
	Price       float64  `json:"price" yaml:"price"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Duration    string   `json:"duration" yaml:"duration"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Includes    []string `json:"includes" yaml:"includes"`
}

// Dataset is the full in-memory catalog. It is read-only once loaded.
type Dataset struct {
	Handicappers   []Handicapper       `json:"handicappers" yaml:"handicappers"`
	Packages       []Package           `json:"packages" yaml:"packages"`
	IntentExamples map[string][]string `json:"intentExamples,omitempty" yaml:"intentExamples"`
}

// Empty reports whether the dataset has no handicappers.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Handicappers) == 0
}

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one prior message in a chat.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
