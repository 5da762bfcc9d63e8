package attribution

// Rule pairs name keywords with the sentence shown when the factor raises
// or lowers risk. A rule matches when the upper-cased name contains any of
// its keywords.
type Rule struct {
	Keywords []string
	RiskUp   string
	RiskDown string
}

// Fallback sentences for names no rule matches.
const (
	FallbackRiskUp   = "Current trend contributes to recession risk."
	FallbackRiskDown = "Current trend supports economic expansion."
)

// DefaultRules returns the built-in rule table. Order matters: the first
// matching rule wins.
func DefaultRules() []Rule {
	return []Rule{
		{[]string{"UNRATE"}, "Unemployment is rising, signaling labor weakness.", "Low unemployment is supporting the economy."},
		{[]string{"PAYEMS"}, "Job growth has slowed significantly.", "Robust job creation continues."},
		{[]string{"AHETPI"}, "Wage growth is cooling.", "Strong wage growth is boosting consumption."},
		{[]string{"CSCICP", "SENTIMENT"}, "Consumer confidence is declining.", "Consumers remain optimistic."},
		{[]string{"T10Y2Y", "SPREAD"}, "The yield curve is inverted (recession signal).", "Yield curve spread is normalizing."},
		{[]string{"AAA10Y"}, "Credit spreads are widening (financial stress).", "Credit conditions remain favorable."},
		{[]string{"HOUST", "PERMIT"}, "Housing activity is contracting.", "Housing market shows resilience."},
		{[]string{"INDPRO"}, "Industrial output is weakening.", "Manufacturing activity is strong."},
		{[]string{"CPI", "PCE"}, "Inflationary pressures persist.", "Inflation remains stable."},
		{[]string{"FEDFUNDS"}, "High interest rates are tightening conditions.", "Interest rate levels are accommodative."},
	}
}

// DefaultNames returns the built-in series display names.
func DefaultNames() map[string]string {
	return map[string]string{
		"UNRATE":          "Unemployment Rate",
		"PAYEMS":          "Nonfarm Payrolls",
		"AHETPI":          "Hourly Wages",
		"IC4WSA":          "Jobless Claims",
		"PCE":             "Personal Consumption",
		"DSPIC96":         "Disposable Income",
		"CPIAUCSL":        "CPI (Inflation)",
		"CPILFESL":        "Core CPI",
		"CSCICP03USM665S": "Consumer Confidence",
		"FEDFUNDS":        "Fed Funds Rate",
		"GS10":            "10-Year Treasury",
		"T10Y2Y":          "Yield Curve Spread",
		"DGS10":           "10-Year Treasury",
		"GS1":             "1-Year Treasury",
		"AAA10Y":          "Corporate Bond Spread",
		"M2REAL":          "Real Money Supply (M2)",
		"WM2NS":           "Money Supply",
		"INDPRO":          "Industrial Production",
		"IPMAN":           "Manufacturing Output",
		"WPSFD49207":      "Producer Prices (PPI)",
		"HOUST":           "Housing Starts",
		"PERMIT":          "Building Permits",
		"USREC":           "Recession Status",
	}
}
