// Package classify assigns a disposal-handling class to newly reported items.
package classify

import (
	"regexp"

	"github.com/erazemk/ewaste/internal/model"
)

// ReusableMaxAgeMonths is the exclusive upper bound on age for reuse.
const ReusableMaxAgeMonths = 48

var (
	hazardMarkers = regexp.MustCompile(`(?i)battery|lithium|acid`)
	damageMarkers = regexp.MustCompile(`(?i)broken|dead|faulty|burnt`)
)

// Input holds the item attributes the classifier looks at.
type Input struct {
	Category  model.Category
	Name      string
	AgeMonths int
	Condition model.Condition
}

// Classify evaluates the rules in priority order: hazard markers win over
// everything, then reuse eligibility, else recyclable.
func Classify(in Input) model.Classification {
	if IsHazardous(in) {
		return model.Classification{Type: model.Hazardous}
	}
	if IsReusable(in) {
		return model.Classification{Type: model.Reusable}
	}
	return model.Classification{Type: model.Recyclable}
}

// IsHazardous reports whether the item is a battery or its name mentions a
// hazardous component.
func IsHazardous(in Input) bool {
	return in.Category == model.CategoryBattery || hazardMarkers.MatchString(in.Name)
}

// IsReusable reports whether a non-hazardous item is young enough, in
// working condition, and not described as damaged.
func IsReusable(in Input) bool {
	if IsHazardous(in) {
		return false
	}
	if in.AgeMonths >= ReusableMaxAgeMonths {
		return false
	}
	if in.Condition != model.ConditionGood && in.Condition != model.ConditionFair {
		return false
	}
	return !damageMarkers.MatchString(in.Name)
}
