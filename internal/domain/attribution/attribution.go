// Package attribution ranks score contributors and explains their effect.
package attribution

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/crashcompass/compass/internal/domain/model"
)

// Contributor categories.
const (
	CategoryRisk      = "risk-factor"
	CategoryStability = "stability-factor"
)

// Impact labels shown next to a driver.
const (
	ImpactIncreasing = "Increasing Risk"
	ImpactSupporting = "Supporting Stability"
)

// Explanation is the labelled, categorised sentence for one contributor.
type Explanation struct {
	Label    model.Contributor `json:"label"`
	Category string            `json:"category"`
	Text     string            `json:"text"`
}

// Explainer holds the rule and name tables. It is immutable after New and
// safe for concurrent use.
type Explainer struct {
	rules []Rule
	names map[string]string
}

// Option configures an Explainer.
type Option func(*Explainer)

// WithRules replaces the rule table.
func WithRules(rules []Rule) Option {
	return func(e *Explainer) {
		e.rules = rules
	}
}

// WithNames replaces the display name table.
func WithNames(names map[string]string) Option {
	return func(e *Explainer) {
		e.names = names
	}
}

// New creates an Explainer with the built-in tables unless overridden.
func New(opts ...Option) *Explainer {
	e := &Explainer{
		rules: DefaultRules(),
		names: DefaultNames(),
	}
	for _, opt := range opts {
		opt(e)
	}

	// Copy so callers cannot mutate the tables afterwards.
	rules := make([]Rule, len(e.rules))
	for i, r := range e.rules {
		kw := make([]string, len(r.Keywords))
		for j, k := range r.Keywords {
			kw[j] = strings.ToUpper(k)
		}
		rules[i] = Rule{Keywords: kw, RiskUp: r.RiskUp, RiskDown: r.RiskDown}
	}
	e.rules = rules
	names := make(map[string]string, len(e.names))
	for k, v := range e.names {
		names[k] = v
	}
	e.names = names
	return e
}

// RankTopWithinGroup returns the contributor with the largest absolute shap
// among those named in allowed. A nil allowed set disables filtering; an
// empty non-nil set matches nothing. Ties keep the first contributor
// encountered.
func (e *Explainer) RankTopWithinGroup(contributors []model.Contributor, allowed map[string]struct{}) (model.Contributor, bool) {
	var (
		best  model.Contributor
		found bool
	)
	for _, c := range contributors {
		if allowed != nil {
			if _, ok := allowed[c.Name]; !ok {
				continue
			}
		}
		if !found || math.Abs(c.Shap) > math.Abs(best.Shap) {
			best, found = c, true
		}
	}
	return best, found
}

// Explain explains the top contributor within allowed. When nothing
// matches, a zero-attribution contributor named fallbackID is explained
// instead.
func (e *Explainer) Explain(contributors []model.Contributor, allowed map[string]struct{}, fallbackID string) Explanation {
	top, ok := e.RankTopWithinGroup(contributors, allowed)
	if !ok {
		top = model.Contributor{Name: fallbackID}
	}
	return Explanation{
		Label:    top,
		Category: Classify(top.Shap),
		Text:     e.Describe(top.Name, top.Shap),
	}
}

// Describe returns the sentence for a factor name and direction.
func (e *Explainer) Describe(name string, shap float64) string {
	riskUp := shap > 0
	n := strings.ToUpper(name)
	for _, r := range e.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(n, kw) {
				if riskUp {
					return r.RiskUp
				}
				return r.RiskDown
			}
		}
	}
	if riskUp {
		return FallbackRiskUp
	}
	return FallbackRiskDown
}

// DisplayName maps a series id to its human-readable name. A trailing
// "_YoY" and underscores are stripped before the lookup; unknown ids are
// returned in that cleaned form.
func (e *Explainer) DisplayName(id string) string {
	clean := strings.ReplaceAll(strings.TrimSuffix(id, "_YoY"), "_", "")
	if name, ok := e.names[clean]; ok {
		return name
	}
	return clean
}

// Classify reports whether shap raises risk. Zero counts as stability.
func Classify(shap float64) string {
	if shap > 0 {
		return CategoryRisk
	}
	return CategoryStability
}

// ImpactLabel is the badge text for a contributor's direction.
func ImpactLabel(shap float64) string {
	if shap > 0 {
		return ImpactIncreasing
	}
	return ImpactSupporting
}

// ImpactWidth is the impact bar width in percent.
func ImpactWidth(shap float64) float64 {
	return math.Min(math.Abs(shap)*500, 100)
}

// TopN returns up to n contributors ordered by absolute shap, largest
// first. Equal magnitudes keep their input order.
func TopN(contributors []model.Contributor, n int) []model.Contributor {
	if n <= 0 {
		return []model.Contributor{}
	}
	out := slices.Clone(contributors)
	slices.SortStableFunc(out, func(a, b model.Contributor) int {
		return cmp.Compare(math.Abs(b.Shap), math.Abs(a.Shap))
	})
	if len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []model.Contributor{}
	}
	return out
}

// Allow builds an allowed-name set.
func Allow(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
