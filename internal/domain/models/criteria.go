package models

// Criteria holds the tunable parameters of every indicator. Fields are
// pointers so an absent option can be told apart from an explicit zero:
// defaults.Set fills absent options with the pipeline defaults from the
// `default` tags, while the accessors fall back to the standalone defaults.
type Criteria struct {
	C CurrentEarnings `yaml:"C" json:"C"`
	A AnnualEarnings  `yaml:"A" json:"A"`
	N NewHigh         `yaml:"N" json:"N"`
	S SupplyDemand    `yaml:"S" json:"S"`
	L LeaderLaggard   `yaml:"L" json:"L"`
	I Institutional   `yaml:"I" json:"I"`
	M MarketDirection `yaml:"M" json:"M"`
}

type CurrentEarnings struct {
	QuarterlyGrowthThreshold *float64 `yaml:"quarterly_growth_threshold" json:"quarterly_growth_threshold" default:"0.1" validate:"omitempty,gte=-1"`
}

// Threshold is the minimum quarter-over-quarter EPS growth ratio.
func (c CurrentEarnings) Threshold() float64 { return floatOr(c.QuarterlyGrowthThreshold, 0.25) }

type AnnualEarnings struct {
	AnnualGrowthThreshold *float64 `yaml:"annual_growth_threshold" json:"annual_growth_threshold" default:"0.1" validate:"omitempty,gte=-1"`
}

// Threshold is the minimum year-over-year EPS growth ratio.
func (a AnnualEarnings) Threshold() float64 { return floatOr(a.AnnualGrowthThreshold, 0.20) }

type NewHigh struct {
	LookbackPeriod *int `yaml:"lookback_period" json:"lookback_period" default:"252" validate:"omitempty,gte=1,lte=5000"`
}

func (n NewHigh) Lookback() int { return intOr(n.LookbackPeriod, 252) }

type SupplyDemand struct {
	VolumeFactor *float64 `yaml:"volume_factor" json:"volume_factor" default:"1.25" validate:"omitempty,gte=0"`
}

func (s SupplyDemand) Factor() float64 { return floatOr(s.VolumeFactor, 1.5) }

type LeaderLaggard struct {
	ReturnDiffThreshold *float64 `yaml:"return_diff_threshold" json:"return_diff_threshold" default:"0" validate:"omitempty"`
}

func (l LeaderLaggard) Threshold() float64 { return floatOr(l.ReturnDiffThreshold, 0.0) }

type Institutional struct {
	LookbackPeriod   *int     `yaml:"lookback_period" json:"lookback_period" default:"50" validate:"omitempty,gte=1,lte=5000"`
	ADRatioThreshold *float64 `yaml:"ad_ratio_threshold" json:"ad_ratio_threshold" default:"1.25" validate:"omitempty"`
}

func (i Institutional) Lookback() int { return intOr(i.LookbackPeriod, 50) }

func (i Institutional) Threshold() float64 { return floatOr(i.ADRatioThreshold, 1.25) }

type MarketDirection struct {
	UseMACross *bool `yaml:"use_ma_cross" json:"use_ma_cross" default:"true"`
}

// MACross reports whether M follows the 50/200 moving-average cross.
func (m MarketDirection) MACross() bool {
	if m.UseMACross == nil {
		return true
	}
	return *m.UseMACross
}

// Overlay returns c with every option set in o replacing its counterpart.
// Options absent from o keep the value from c.
func (c Criteria) Overlay(o Criteria) Criteria {
	c.C.QuarterlyGrowthThreshold = pickFloat(o.C.QuarterlyGrowthThreshold, c.C.QuarterlyGrowthThreshold)
	c.A.AnnualGrowthThreshold = pickFloat(o.A.AnnualGrowthThreshold, c.A.AnnualGrowthThreshold)
	c.N.LookbackPeriod = pickInt(o.N.LookbackPeriod, c.N.LookbackPeriod)
	c.S.VolumeFactor = pickFloat(o.S.VolumeFactor, c.S.VolumeFactor)
	c.L.ReturnDiffThreshold = pickFloat(o.L.ReturnDiffThreshold, c.L.ReturnDiffThreshold)
	c.I.LookbackPeriod = pickInt(o.I.LookbackPeriod, c.I.LookbackPeriod)
	c.I.ADRatioThreshold = pickFloat(o.I.ADRatioThreshold, c.I.ADRatioThreshold)
	if o.M.UseMACross != nil {
		c.M.UseMACross = o.M.UseMACross
	}
	return c
}

// Float, Int and Bool build option pointers for literals.
func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func pickFloat(p, fallback *float64) *float64 {
	if p != nil {
		return p
	}
	return fallback
}

func pickInt(p, fallback *int) *int {
	if p != nil {
		return p
	}
	return fallback
}
