// Package transform flattens catalog records into embeddable text plus the
// metadata stored alongside each vector.
package transform

import (
	"strconv"
	"strings"

	"github.com/okian/capperchat/internal/domain/model"
)

// Record types stored under MetaType.
const (
	TypeHandicapper = "handicapper"
	TypePackage     = "package"
)

// Metadata keys shared with the search filter builder.
const (
	MetaID              = "id"
	MetaName            = "name"
	MetaType            = "type"
	MetaSports          = "sports"
	MetaWinPercentage   = "winPercentage"
	MetaTotalPicks      = "totalPicks"
	MetaUnitsProfit     = "unitsProfit"
	MetaROI             = "roi"
	MetaYearsExperience = "yearsExperience"
	MetaRecentRecord    = "recentRecord"
	MetaRecentUnits     = "recentUnits"
	MetaCapperID        = "capperId"
	MetaTitle           = "title"
	MetaSport           = "sport"
	MetaPackageType     = "packageType"
	MetaPrice           = "price"
	MetaConfidence      = "confidence"
	MetaDuration        = "duration"
)

// Indexable is one record ready for embedding.
type Indexable struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// NormalizeSport is the canonical form used both when storing and filtering.
func NormalizeSport(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeSports maps NormalizeSport over in, dropping blanks.
func NormalizeSports(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := NormalizeSport(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Handicapper transforms a handicapper record.
func Handicapper(h model.Handicapper) Indexable {
	stats := h.CurrentStats
	parts := []string{
		h.Name,
		h.Nickname,
		h.Bio,
		"Specialties: " + strings.Join(h.Specialties, ", "),
		"Experience: " + strconv.Itoa(h.YearsExperience) + " years",
		"Win rate: " + num(stats.WinPercentage) + "%",
		"Units Profit: " + num(stats.UnitsProfit),
		strings.Join(h.Achievements, ". "),
	}

	return Indexable{
		ID:   h.ID,
		Text: joinNonEmpty(parts),
		Metadata: map[string]any{
			MetaID:              h.ID,
			MetaName:            h.Name,
			MetaType:            TypeHandicapper,
			MetaSports:          NormalizeSports(h.Specialties),
			MetaWinPercentage:   stats.WinPercentage,
			MetaTotalPicks:      stats.TotalPicks,
			MetaUnitsProfit:     stats.UnitsProfit,
			MetaROI:             stats.ROI,
			MetaYearsExperience: h.YearsExperience,
			MetaRecentRecord:    h.RecentPerformance.Last7Days.Record,
			MetaRecentUnits:     h.RecentPerformance.Last7Days.Units.Float64(),
		},
	}
}

// Package transforms a package record.
func Package(p model.Package) Indexable {
	parts := []string{
		p.Title,
		p.CapperID,
		"Sport: " + p.Sport,
		"Type: " + p.Type,
		"Price: $" + num(p.Price),
		"Confidence: " + num(p.Confidence) + "%",
		p.Description,
		"Includes: " + strings.Join(p.Includes, ", "),
	}

	return Indexable{
		ID:   p.ID,
		Text: joinNonEmpty(parts),
		Metadata: map[string]any{
			MetaID:          p.ID,
			MetaCapperID:    p.CapperID,
			MetaType:        TypePackage,
			MetaTitle:       p.Title,
			MetaSport:       p.Sport,
			MetaSports:      NormalizeSports([]string{p.Sport}),
			MetaPackageType: p.Type,
			MetaPrice:       p.Price,
			MetaConfidence:  p.Confidence,
			MetaDuration:    p.Duration,
		},
	}
}

// Dataset transforms every record, handicappers first.
func Dataset(ds *model.Dataset) []Indexable {
	if ds == nil {
		return nil
	}
	out := make([]Indexable, 0, len(ds.Handicappers)+len(ds.Packages))
	for _, h := range ds.Handicappers {
		out = append(out, Handicapper(h))
	}
	for _, p := range ds.Packages {
		out = append(out, Package(p))
	}
	return out
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
