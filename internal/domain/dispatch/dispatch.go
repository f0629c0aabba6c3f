// Package dispatch turns a resolved intent into a templated reply and the
// structured data a chat widget renders. Handlers only read the dataset.
package dispatch

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/capperchat/internal/domain/model"
)

const (
	defaultMaxPrice  = 50
	maxPricingResult = 5
	topPerformers    = 3
	maxCompared      = 2
)

// Sports recognised in recommendation queries, in match order.
var Sports = []string{"nfl", "nba", "mlb", "nhl"} //nolint:gochecknoglobals // fixed vocabulary

// Suggestions offered when no handler applies.
var Suggestions = []string{ //nolint:gochecknoglobals // fixed vocabulary
	"Who's the best capper?",
	"Show me packages under $50",
	"Compare top performers",
	"What are the NFL win rates?",
}

// Intents lists the intents with a dedicated handler.
var Intents = []model.Intent{ //nolint:gochecknoglobals // fixed vocabulary
	model.IntentRecommendation,
	model.IntentPricing,
	model.IntentPerformance,
	model.IntentComparison,
}

var priceRe = regexp.MustCompile(`\$?(\d+)`)

const generalReply = "I can help you find the best cappers and packages! Try asking about recommendations, pricing, or performance comparisons."

// Response is a reply and its widget payload. Data is never nil.
type Response struct {
	Reply string
	Data  any
}

// HasHandler reports whether i has a dedicated handler.
func HasHandler(i model.Intent) bool {
	for _, h := range Intents {
		if h == i {
			return true
		}
	}
	return false
}

// Respond dispatches on intent. Unknown, general and custom intents get the
// help reply.
func Respond(intent model.Intent, ds *model.Dataset, message string) Response {
	if ds == nil {
		ds = &model.Dataset{}
	}
	switch intent {
	case model.IntentRecommendation:
		return recommend(ds, message)
	case model.IntentPricing:
		return pricing(ds, message)
	case model.IntentPerformance:
		return performance(ds)
	case model.IntentComparison:
		return compare(ds, message)
	default:
		return General()
	}
}

// General is the static help response.
func General() Response {
	intents := make([]string, len(Intents))
	for i, in := range Intents {
		intents[i] = string(in)
	}
	return Response{
		Reply: generalReply,
		Data: GeneralData{
			Suggestions:      append([]string(nil), Suggestions...),
			AvailableIntents: intents,
		},
	}
}

func recommend(ds *model.Dataset, message string) Response {
	lower := strings.ToLower(message)
	sport := ""
	for _, s := range Sports {
		if strings.Contains(lower, s) {
			sport = s
			break
		}
	}

	candidates := ds.Handicappers
	if sport != "" {
		candidates = filterBySport(ds.Handicappers, sport)
	}
	if len(candidates) == 0 {
		reply := "Sorry, no cappers found"
		if sport != "" {
			reply += " for " + strings.ToUpper(sport)
		}
		return Response{
			Reply: reply + ". Try asking about NFL, NBA, MLB or NHL",
			Data:  NoMatchData{AvailableSports: append([]string(nil), Sports...)},
		}
	}

	ranked := byWinRate(candidates)
	best := ranked[0]

	sportText := ""
	if sport != "" {
		sportText = " for " + strings.ToUpper(sport)
	}

	alternatives := ranked[1:min(len(ranked), 3)]
	return Response{
		Reply: "I recommend " + best.Name + sportText +
			" with a " + formatNumber(best.CurrentStats.WinPercentage) + "% win rate and " +
			strconv.Itoa(best.CurrentStats.TotalPicks) + " total picks.",
		Data: RecommendationData{
			Capper:       best,
			Sport:        sport,
			Alternatives: append([]model.Handicapper{}, alternatives...),
		},
	}
}

func pricing(ds *model.Dataset, message string) Response {
	maxPrice := float64(defaultMaxPrice)
	if m := priceRe.FindStringSubmatch(message); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			maxPrice = v
		}
	}

	affordable := make([]model.Package, 0, len(ds.Packages))
	for _, p := range ds.Packages {
		if p.Price <= maxPrice {
			affordable = append(affordable, p)
		}
	}
	sort.SliceStable(affordable, func(i, j int) bool { return affordable[i].Price < affordable[j].Price })
	if len(affordable) > maxPricingResult {
		affordable = affordable[:maxPricingResult]
	}

	maxText := formatNumber(maxPrice)
	if len(affordable) == 0 {
		reply := "No packages found under $" + maxText + "."
		if cheapest, ok := cheapestPrice(ds.Packages); ok {
			reply += " Our cheapest package starts at $" + formatNumber(cheapest) + "."
		} else {
			reply += " No packages are available right now."
		}
		return Response{Reply: reply, Data: PricingData{Packages: []model.Package{}, RequestedPrice: maxPrice}}
	}

	items := make([]string, len(affordable))
	for i, p := range affordable {
		items[i] = p.Title + " ($" + formatNumber(p.Price) + ")"
	}
	return Response{
		Reply: "Packages under $" + maxText + ": " + strings.Join(items, ", "),
		Data: PricingData{
			Packages:       affordable,
			RequestedPrice: maxPrice,
			TotalFound:     len(affordable),
		},
	}
}

func performance(ds *model.Dataset) Response {
	top := byWinRate(ds.Handicappers)
	if len(top) > topPerformers {
		top = top[:topPerformers]
	}
	if len(top) == 0 {
		return Response{
			Reply: "No performance data is available yet.",
			Data:  PerformanceData{TopPerformers: []model.Handicapper{}},
		}
	}

	lines := make([]string, len(top))
	sum := 0.0
	for i, h := range top {
		lines[i] = strconv.Itoa(i+1) + ". " + h.Name + ": " + formatNumber(h.CurrentStats.WinPercentage) +
			"% (" + strconv.Itoa(h.CurrentStats.TotalPicks) + " picks)"
		sum += h.CurrentStats.WinPercentage
	}
	return Response{
		Reply: "Top 3 performers:\n" + strings.Join(lines, "\n"),
		Data: PerformanceData{
			TopPerformers:  top,
			AverageWinRate: math.Round(sum/float64(len(top))*10) / 10,
		},
	}
}

func compare(ds *model.Dataset, message string) Response {
	lower := strings.ToLower(message)
	named := make([]model.Handicapper, 0, maxCompared)
	for _, h := range ds.Handicappers {
		if h.Name != "" && strings.Contains(lower, strings.ToLower(h.Name)) {
			named = append(named, h)
			if len(named) == maxCompared {
				break
			}
		}
	}

	if len(named) < maxCompared {
		top := byWinRate(ds.Handicappers)
		if len(top) > topPerformers {
			top = top[:topPerformers]
		}
		parts := make([]string, len(top))
		for i, h := range top {
			parts[i] = h.Name + ": " + formatNumber(h.CurrentStats.WinPercentage) + "%"
		}
		return Response{
			Reply: "Here's a comparison of our top 3: " + strings.Join(parts, " vs "),
			Data:  ComparisonData{ComparedCappers: top},
		}
	}

	parts := make([]string, len(named))
	for i, h := range named {
		parts[i] = h.Name + ": " + formatNumber(h.CurrentStats.WinPercentage) + "% win rate, " +
			strconv.Itoa(h.CurrentStats.TotalPicks) + " picks"
	}
	return Response{
		Reply: "Comparison: " + strings.Join(parts, " | "),
		Data:  ComparisonData{ComparedCappers: named},
	}
}

func filterBySport(in []model.Handicapper, sport string) []model.Handicapper {
	out := make([]model.Handicapper, 0, len(in))
	for _, h := range in {
		for _, s := range h.Specialties {
			if strings.Contains(strings.ToLower(s), sport) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

// byWinRate returns a copy sorted by win percentage, highest first. Ties keep
// dataset order.
func byWinRate(in []model.Handicapper) []model.Handicapper {
	out := append([]model.Handicapper(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CurrentStats.WinPercentage > out[j].CurrentStats.WinPercentage
	})
	return out
}

func cheapestPrice(pkgs []model.Package) (float64, bool) {
	if len(pkgs) == 0 {
		return 0, false
	}
	lowest := pkgs[0].Price
	for _, p := range pkgs[1:] {
		lowest = math.Min(lowest, p.Price)
	}
	return lowest, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
