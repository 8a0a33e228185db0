package canslim

import (
	"CanSlim/internal/domain/models"
	applogger "CanSlim/pkg/logger"
)

// CombineSignals sets CANSLI_all to the conjunction of C, A, N, S, L and I.
// If any of them was not produced, CANSLI_all is false for every row.
func (c *Calculator) CombineSignals(signals models.SignalTable) (models.SignalTable, error) {
	out := models.SignalTable{Columns: signals.Columns.Clone(), Rows: make([]models.SignalRow, len(signals.Rows))}
	copy(out.Rows, signals.Rows)
	out.Columns.Add(models.ColCANSLIAll)

	required := make([]string, len(models.StockLetters))
	for i, l := range models.StockLetters {
		required[i] = string(l)
	}
	if missing := signals.Columns.Missing(required...); len(missing) > 0 {
		c.l.Error("Missing some CANSLI columns", applogger.Strings("columns", missing))
		for i := range out.Rows {
			out.Rows[i].CANSLIAll = false
		}
		return out, &MissingSignalError{Columns: missing}
	}

	for i := range out.Rows {
		r := &out.Rows[i]
		r.CANSLIAll = r.C && r.A && r.N && r.S && r.L && r.I
	}
	return out, nil
}

// BuildManifest describes every indicator with the parameters it uses.
func BuildManifest(criteria models.Criteria) models.Manifest {
	return models.Manifest{
		models.LetterC: {
			Name:        "Current Quarterly Earnings",
			Description: "Quarterly year-over-year EPS growth",
			Parameters:  criteria.C.Threshold(),
		},
		models.LetterA: {
			Name:        "Annual Earnings Growth",
			Description: "Year-over-year EPS growth",
			Parameters:  criteria.A.Threshold(),
		},
		models.LetterN: {
			Name:        "New High",
			Description: "52-week high lookback period",
			Parameters:  criteria.N.Lookback(),
		},
		models.LetterS: {
			Name:        "Supply/Demand",
			Description: "Volume factor above avg vol",
			Parameters:  criteria.S.Factor(),
		},
		models.LetterL: {
			Name:        "Leader/Laggard",
			Description: "(stock_return - market_return) > threshold",
			Parameters:  criteria.L.Threshold(),
		},
		models.LetterI: {
			Name:        "Institutional Sponsorship",
			Description: "A/D metric above threshold",
			Parameters:  []interface{}{criteria.I.Lookback(), criteria.I.Threshold()},
		},
		models.LetterM: {
			Name:        "Market Direction",
			Description: "50-day MA > 200-day MA",
			Parameters:  "MA cross logic",
		},
	}
}
