package models

// Requests for the CANSLIM HTTP endpoints.

// RunRequest screens a window. Nil Persist and Publish follow the service
// configuration.
type RunRequest struct {
	From     string    `json:"from" validate:"required,datetime=2006-01-02"`
	To       string    `json:"to" validate:"required,datetime=2006-01-02"`
	Tickers  []string  `json:"tickers" validate:"omitempty,max=2000,dive,required"`
	Criteria *Criteria `json:"criteria"`
	Persist  *bool     `json:"persist"`
	Publish  *bool     `json:"publish"`
}

type SignalsRequest struct {
	Ticker string `query:"ticker" json:"ticker"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	All    bool   `query:"all" json:"all"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type ScreenRequest struct {
	Date string `query:"date" json:"date" validate:"required,datetime=2006-01-02"`
}

type CriteriaRequest struct {
	C *float64 `query:"c" json:"c"`
	A *float64 `query:"a" json:"a"`
	N *int     `query:"n" json:"n" validate:"omitempty,gte=1"`
	S *float64 `query:"s" json:"s"`
	L *float64 `query:"l" json:"l"`
}

// Apply overlays the query overrides onto base.
func (r CriteriaRequest) Apply(base Criteria) Criteria {
	return base.Overlay(Criteria{
		C: CurrentEarnings{QuarterlyGrowthThreshold: r.C},
		A: AnnualEarnings{AnnualGrowthThreshold: r.A},
		N: NewHigh{LookbackPeriod: r.N},
		S: SupplyDemand{VolumeFactor: r.S},
		L: LeaderLaggard{ReturnDiffThreshold: r.L},
	})
}
