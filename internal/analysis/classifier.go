package analysis

import "github.com/vcscsvcscs/bp-insights/pkg/model"

// Rule is one step of the classification cascade
type Rule struct {
	Category model.Category
	Match    func(systolic, diastolic int) bool
}

// ClassifierOptions controls the position and thresholds of the
// hypertensive crisis rule.
//
// With the zero-value ordering (CrisisFirst false) the crisis rule sits after
// stage 2, and since stage 2 already matches systolic >= 140 or diastolic >= 90
// the crisis rule can never fire. That ordering is kept as the default until
// the intended clinical semantics are confirmed.
type ClassifierOptions struct {
	CrisisFirst     bool
	CrisisSystolic  int
	CrisisDiastolic int
	// CrisisInclusive selects >= thresholds; false selects strict >.
	CrisisInclusive bool
}

// DefaultClassifierOptions reproduces the original cascade
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		CrisisFirst:     false,
		CrisisSystolic:  180,
		CrisisDiastolic: 120,
		CrisisInclusive: true,
	}
}

var classifications = map[model.Category]model.Classification{
	model.CategoryHypotension: {
		Category: model.CategoryHypotension,
		Label:    "Low BP",
		Severity: model.SeverityLow,
		Advice:   "Consult doctor if symptomatic",
	},
	model.CategoryNormal: {
		Category: model.CategoryNormal,
		Label:    "Normal",
		Severity: model.SeverityNormal,
		Advice:   "Maintain healthy lifestyle",
	},
	model.CategoryElevated: {
		Category: model.CategoryElevated,
		Label:    "Elevated",
		Severity: model.SeverityWarning,
		Advice:   "Monitor closely, lifestyle changes recommended",
	},
	model.CategoryHypertensionStage1: {
		Category: model.CategoryHypertensionStage1,
		Label:    "Stage 1 Hypertension",
		Severity: model.SeverityModerate,
		Advice:   "Consult doctor, lifestyle changes required",
	},
	model.CategoryHypertensionStage2: {
		Category: model.CategoryHypertensionStage2,
		Label:    "Stage 2 Hypertension",
		Severity: model.SeverityHigh,
		Advice:   "Immediate medical attention recommended",
	},
	model.CategoryHypertensiveCrisis: {
		Category: model.CategoryHypertensiveCrisis,
		Label:    "Hypertensive Crisis",
		Severity: model.SeverityCritical,
		Advice:   "Seek emergency care immediately",
	},
	model.CategoryUnknown: {
		Category: model.CategoryUnknown,
		Label:    "Check Values",
		Severity: model.SeverityUnknown,
		Advice:   "Please verify readings",
	},
}

// ClassificationFor returns the fixed label/severity/advice tuple for a category
func ClassificationFor(category model.Category) model.Classification {
	if c, ok := classifications[category]; ok {
		return c
	}
	return classifications[model.CategoryUnknown]
}

// Classifier maps a systolic/diastolic pair to a classification by walking an
// ordered rule list; the first matching rule wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier builds the cascade for the given options
func NewClassifier(opts ClassifierOptions) *Classifier {
	crisis := Rule{
		Category: model.CategoryHypertensiveCrisis,
		Match: func(s, d int) bool {
			if opts.CrisisInclusive {
				return s >= opts.CrisisSystolic || d >= opts.CrisisDiastolic
			}
			return s > opts.CrisisSystolic || d > opts.CrisisDiastolic
		},
	}

	rules := []Rule{
		{
			Category: model.CategoryHypotension,
			Match:    func(s, d int) bool { return s < 90 || d < 60 },
		},
		{
			Category: model.CategoryNormal,
			Match:    func(s, d int) bool { return s < 120 && d < 80 },
		},
		{
			Category: model.CategoryElevated,
			Match:    func(s, d int) bool { return s >= 120 && s <= 129 && d < 80 },
		},
		{
			Category: model.CategoryHypertensionStage1,
			Match: func(s, d int) bool {
				return (s >= 130 && s <= 139) || (d >= 80 && d <= 89)
			},
		},
	}

	stage2 := Rule{
		Category: model.CategoryHypertensionStage2,
		Match:    func(s, d int) bool { return s >= 140 || d >= 90 },
	}

	if opts.CrisisFirst {
		rules = append(rules, crisis, stage2)
	} else {
		rules = append(rules, stage2, crisis)
	}

	return &Classifier{rules: rules}
}

// Rules returns a copy of the cascade in evaluation order
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Classify returns the classification of the first matching rule, or unknown
func (c *Classifier) Classify(systolic, diastolic int) model.Classification {
	for _, rule := range c.rules {
		if rule.Match(systolic, diastolic) {
			return ClassificationFor(rule.Category)
		}
	}
	return ClassificationFor(model.CategoryUnknown)
}

var defaultClassifier = NewClassifier(DefaultClassifierOptions())

// Classify classifies a pair with the default cascade
func Classify(systolic, diastolic int) model.Classification {
	return defaultClassifier.Classify(systolic, diastolic)
}
