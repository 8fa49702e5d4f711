// Package signals extracts structured intent signals from raw user text.
// Extraction is pure pattern matching: no model calls, deterministic for a
// given input.
package signals

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/phonepilot/advisor-engine/internal/catalog"
)

// VaguenessThreshold is the signal count at or below which a request is
// treated as vague. A single extracted signal is not enough to recommend
// confidently; two or more make the request specific.
const VaguenessThreshold = 1

// Signal is one extracted constraint, expressed directly as a catalog
// condition so a fallback plan can be assembled from signals alone.
type Signal struct {
	Field    string
	Operator catalog.Operator
	Value    catalog.Value
}

// Key identifies a signal for set deduplication.
func (s Signal) Key() string {
	return s.Field + "|" + string(s.Operator) + "|" + s.Value.String()
}

// Condition converts the signal to a catalog condition.
func (s Signal) Condition() catalog.Condition {
	return catalog.Condition{Field: s.Field, Operator: s.Operator, Value: s.Value}
}

// Set is a deduplicated, deterministically ordered collection of signals.
type Set struct {
	signals []Signal
}

// Signals returns the signals in deterministic order.
func (s Set) Signals() []Signal {
	return s.signals
}

// Count returns the number of distinct signals.
func (s Set) Count() int {
	return len(s.signals)
}

// IsVague reports whether the request carried too few signals to be
// considered specific.
func (s Set) IsVague() bool {
	return s.Count() == VaguenessThreshold
}

// Conditions returns all signals as catalog conditions, for the fallback
// plan when model-driven planning fails.
func (s Set) Conditions() []catalog.Condition {
	conds := make([]catalog.Condition, 0, len(s.signals))
	for _, sig := range s.signals {
		conds = append(conds, sig.Condition())
	}
	return conds
}

var (
	priceRe   = regexp.MustCompile(`(?i)(?:under|below|less than|max|budget|upto|up to)\s*(?:₹|rs\.?|rupees?)?\s*(\d+(?:,\d{3})*)\s*(k|thousand)?`)
	brandRe   = regexp.MustCompile(`(?i)\b(samsung|apple|iphone|oneplus|xiaomi|redmi|realme|oppo|vivo|google|pixel|motorola|nokia)\b`)
	ramRe     = regexp.MustCompile(`(?i)(\d+)\s*(?:gb|gigabytes?)\s*(?:ram|memory)`)
	storageRe = regexp.MustCompile(`(?i)(\d+)\s*(gb|gigabytes?|tb|terabytes?)\s*(?:of\s+)?(?:storage|rom|space)`)
	cameraRe  = regexp.MustCompile(`(?i)(\d+)\s*(?:mp|megapixels?)`)
	batteryRe = regexp.MustCompile(`(?i)(\d+)\s*mah`)
	displayRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:inch(?:es)?|")`)
	osRe      = regexp.MustCompile(`(?i)\b(android|ios)\b`)
	// Rating comes in both orders: "4+ stars" and "rating above 4".
	ratingRe      = regexp.MustCompile(`(?i)(\d(?:\.\d)?)\s*\+?\s*(?:stars?|rated|rating)`)
	ratingAfterRe = regexp.MustCompile(`(?i)(?:rating|rated)\s*(?:above|over|more than|of|at least)?\s*(\d(?:\.\d)?)`)
)

// brandAliases maps sub-brand and product-line tokens to the catalog brand
// they belong to.
var brandAliases = map[string]string{
	"iphone": "apple",
	"pixel":  "google",
	"redmi":  "xiaomi",
}

// Extract pulls signals from the current user text and prior user turns.
// Duplicate signals collapse; the result is a set.
func Extract(text string, history []string) Set {
	blob := text
	if len(history) > 0 {
		blob = strings.Join(append(append([]string{}, history...), text), "\n")
	}

	seen := make(map[string]struct{})
	var out []Signal

	add := func(sig Signal) {
		key := sig.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, sig)
	}

	for _, m := range priceRe.FindAllStringSubmatch(blob, -1) {
		if price, ok := parsePrice(m[1], m[2]); ok {
			add(Signal{Field: "price", Operator: catalog.OpLte, Value: catalog.NumberValue(price)})
		}
	}

	for _, m := range brandRe.FindAllStringSubmatch(blob, -1) {
		brand := strings.ToLower(m[1])
		if canonical, ok := brandAliases[brand]; ok {
			brand = canonical
		}
		add(Signal{Field: "brand", Operator: catalog.OpILike, Value: catalog.StringValue("%" + brand + "%")})
	}

	for _, m := range ramRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			add(Signal{Field: "ram", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	for _, m := range storageRe.FindAllStringSubmatch(blob, -1) {
		n, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(m[2]), "t") {
			n *= 1024
		}
		add(Signal{Field: "storage", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
	}

	for _, m := range cameraRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			add(Signal{Field: "camera_main", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	for _, m := range batteryRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			add(Signal{Field: "battery", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	for _, m := range displayRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil {
			add(Signal{Field: "display_size", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	for _, m := range osRe.FindAllStringSubmatch(blob, -1) {
		os := "Android"
		if strings.EqualFold(m[1], "ios") {
			os = "iOS"
		}
		add(Signal{Field: "os", Operator: catalog.OpEq, Value: catalog.StringValue(os)})
	}

	for _, m := range ratingRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil && n <= 5 {
			add(Signal{Field: "rating", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	for _, m := range ratingAfterRe.FindAllStringSubmatch(blob, -1) {
		if n, err := strconv.ParseFloat(m[1], 64); err == nil && n <= 5 {
			add(Signal{Field: "rating", Operator: catalog.OpGte, Value: catalog.NumberValue(n)})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field != out[j].Field {
			return out[i].Field < out[j].Field
		}
		return out[i].Value.String() < out[j].Value.String()
	})
	return Set{signals: out}
}

// parsePrice normalizes "25,000", "25k" and "25 thousand" to rupees.
func parsePrice(digits, suffix string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	if suffix != "" {
		n *= 1000
	}
	return n, true
}
