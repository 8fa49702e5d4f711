package executor

import (
	"regexp"
	"strings"
)

// wildcardRule maps a series regex fragment from the planner to the ILIKE
// pattern that finds that series in the model column. Rules are ordered:
// manufacturer-qualified patterns come before the generic suffix patterns
// so "iPhone.*Pro" wins over plain "Pro".
type wildcardRule struct {
	fragment string
	pattern  string
}

var wildcardRules = []wildcardRule{
	// Samsung Galaxy
	{"S[0-9]+", "%S%"},
	{"A[0-9]+", "%A%"},
	{"M[0-9]+", "%M%"},
	{"F[0-9]+", "%F%"},
	{"Note", "%Note%"},
	{"Z[0-9]+", "%Z%"},
	// iPhone
	{"iPhone.*Pro", "%Pro%"},
	{"iPhone.*Plus", "%Plus%"},
	{"iPhone.*Max", "%Max%"},
	{"iPhone.*SE", "%SE%"},
	{"iPhone.*Mini", "%Mini%"},
	// OnePlus
	{"Nord", "%Nord%"},
	{"Ace", "%Ace%"},
	{"CE", "%CE%"},
	// Xiaomi / Redmi / POCO
	{"Redmi.*Note", "%Note%"},
	{"Redmi.*K", "%K%"},
	{"POCO.*X", "%X%"},
	{"POCO.*F", "%F%"},
	{"POCO.*M", "%M%"},
	{"Mi.*Note", "%Note%"},
	{"Mi.*Max", "%Max%"},
	// Oppo
	{"Reno", "%Reno%"},
	{"Find", "%Find%"},
	{"K[0-9]+", "%K%"},
	// Vivo
	{"V[0-9]+", "%V%"},
	{"X[0-9]+", "%X%"},
	{"Y[0-9]+", "%Y%"},
	{"T[0-9]+", "%T%"},
	// Realme
	{"GT", "%GT%"},
	{"Narzo", "%Narzo%"},
	{"C[0-9]+", "%C%"},
	// Google Pixel
	{"Pixel.*Pro", "%Pro%"},
	{"Pixel.*a", "%a%"},
	// Motorola
	{"Edge", "%Edge%"},
	{"G[0-9]+", "%G%"},
	{"E[0-9]+", "%E%"},
	// Nothing
	{"Nothing.*Phone", "%Phone%"},
	// iQOO
	{"iQOO.*Z", "%Z%"},
	{"iQOO.*Neo", "%Neo%"},
	// Infinix / Tecno / Lava
	{"Infinix.*Hot", "%Hot%"},
	{"Infinix.*Zero", "%Zero%"},
	{"Tecno.*Spark", "%Spark%"},
	{"Tecno.*Camon", "%Camon%"},
	{"Tecno.*Phantom", "%Phantom%"},
	{"Lava.*Agni", "%Agni%"},
	{"Lava.*Blaze", "%Blaze%"},
	// Generic suffix series, matched last
	{"Pro", "%Pro%"},
	{"Plus", "%Plus%"},
	{"Max", "%Max%"},
	{"Mini", "%Mini%"},
	{"SE", "%SE%"},
	{"Ultra", "%Ultra%"},
	{"Lite", "%Lite%"},
	{"Neo", "%Neo%"},
}

var regexMetachars = regexp.MustCompile(`[.*+?^$()|{}\[\]\\]`)

// regexToILike rewrites a planner series regex into an ILIKE pattern. The
// rewrite is lossy on purpose: a series regex like "S[0-9]+" widens to
// "%S%" so the store never needs regex support. Unrecognized patterns fall
// back to stripping regex syntax into wildcards.
func regexToILike(pattern string) string {
	for _, rule := range wildcardRules {
		if strings.Contains(pattern, rule.fragment) {
			return rule.pattern
		}
	}
	return regexMetachars.ReplaceAllString(pattern, "%")
}
