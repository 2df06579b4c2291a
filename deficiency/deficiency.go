// Package deficiency classifies biomarker values as normal, insufficient or
// severe using clinically informed thresholds. Classification is a pure
// function of its input: no I/O, no hidden state.
package deficiency

import (
	"math"
	"strings"

	"github.com/nutriscan/labagent/report"
)

// Rule holds the classification thresholds for one biomarker. Zero bound
// fields mean the respective check is not applicable. The rule key is matched
// against biomarker test names by case-insensitive substring.
type Rule struct {
	Key              string
	DisplayName      string
	LowSevere        *float64 // below this: severe
	LowInsufficient  *float64 // below this (but above severe): insufficient
	HighInsufficient *float64 // above this: insufficient on the high side
	HighSevere       *float64 // above this: severe on the high side
}

func bound(v float64) *float64 { return &v }

// thresholds lists lowercase test-name fragments with their classification
// rules. Order matters: the first matching fragment wins, so more specific
// fragments ("ferritin") come before the generic ones they contain ("iron").
// Extend here to cover more biomarkers.
var thresholds = []Rule{
	{
		Key:             "vitamin d",
		DisplayName:     "Vitamin D",
		LowSevere:       bound(12.0), // ng/mL
		LowInsufficient: bound(30.0),
	},
	{
		Key:             "ferritin",
		DisplayName:     "Iron (Ferritin)",
		LowSevere:       bound(10.0), // ng/mL
		LowInsufficient: bound(20.0),
	},
	{
		Key:             "b12",
		DisplayName:     "Vitamin B12",
		LowSevere:       bound(150.0), // pg/mL
		LowInsufficient: bound(200.0),
	},
	{
		Key:             "folate",
		DisplayName:     "Folate",
		LowSevere:       bound(2.0), // ng/mL
		LowInsufficient: bound(3.0),
	},
	{
		Key:              "calcium",
		DisplayName:      "Calcium",
		LowSevere:        bound(7.0), // mg/dL
		LowInsufficient:  bound(8.5),
		HighInsufficient: bound(10.5),
	},
	{
		Key:             "hemoglobin",
		DisplayName:     "Hemoglobin",
		LowSevere:       bound(7.0), // g/dL
		LowInsufficient: bound(12.0),
	},
	{
		Key:              "tsh",
		DisplayName:      "TSH",
		LowInsufficient:  bound(0.4), // mIU/L, low = hyperthyroid
		HighInsufficient: bound(4.0), // high = hypothyroid
		HighSevere:       bound(10.0),
	},
	{
		Key:             "iron",
		DisplayName:     "Iron",
		LowSevere:       bound(30.0), // µg/dL
		LowInsufficient: bound(60.0),
	},
	{
		Key:             "magnesium",
		DisplayName:     "Magnesium",
		LowSevere:       bound(1.0), // mg/dL
		LowInsufficient: bound(1.7),
	},
	{
		Key:             "zinc",
		DisplayName:     "Zinc",
		LowSevere:       bound(40.0), // µg/dL
		LowInsufficient: bound(60.0),
	},
}

// matchRule finds the threshold rule for a biomarker test name, if any.
// Rules are scanned in table order so a name matching several fragments
// always resolves to the same rule.
func matchRule(testName string) (Rule, bool) {
	nameLower := strings.ToLower(testName)
	for _, rule := range thresholds {
		if strings.Contains(nameLower, rule.Key) {
			return rule, true
		}
	}
	return Rule{}, false
}

// percentage reports how close value is to threshold, capped at 100.
func percentage(value, threshold float64) float64 {
	if threshold <= 0 {
		return 100.0
	}
	pct := value / threshold * 100
	if pct > 100 {
		pct = 100.0
	}
	return math.Round(pct*10) / 10
}

// Detect classifies biomarkers against the threshold table and returns a
// deficiency for every value outside its normal range. Biomarkers without a
// matching rule never produce a deficiency.
//
// The low/high precedence is deliberately asymmetric and preserved from the
// original rule set: low-severe, then high-severe, then low-insufficient,
// with high-insufficient applied only when the severity is still normal.
func Detect(biomarkers []report.Biomarker) []report.Deficiency {
	var deficiencies []report.Deficiency

	for _, b := range biomarkers {
		rule, ok := matchRule(b.TestName)
		if !ok {
			continue
		}

		severity := report.SeverityNormal
		pct := 100.0

		if rule.LowSevere != nil && b.Value < *rule.LowSevere {
			severity = report.SeveritySevere
			ref := *rule.LowSevere
			if rule.LowInsufficient != nil {
				ref = *rule.LowInsufficient
			}
			pct = percentage(b.Value, ref)
		} else if rule.LowInsufficient != nil && b.Value < *rule.LowInsufficient {
			severity = report.SeverityInsufficient
			pct = percentage(b.Value, *rule.LowInsufficient)
		}

		if rule.HighSevere != nil && b.Value > *rule.HighSevere {
			severity = report.SeveritySevere
			ref := *rule.HighSevere
			if rule.HighInsufficient != nil {
				ref = *rule.HighInsufficient
			}
			pct = percentage(ref, b.Value)
		} else if rule.HighInsufficient != nil && b.Value > *rule.HighInsufficient {
			if severity == report.SeverityNormal { // don't override a low-side severity
				severity = report.SeverityInsufficient
				pct = percentage(*rule.HighInsufficient, b.Value)
			}
		}

		if severity != report.SeverityNormal {
			deficiencies = append(deficiencies, report.Deficiency{
				Biomarker:          b,
				Severity:           severity,
				PercentageOfNormal: pct,
			})
		}
	}

	return deficiencies
}
