package models

// Letter is one of the seven CANSLIM indicators.
type Letter string

const (
	LetterC Letter = "C"
	LetterA Letter = "A"
	LetterN Letter = "N"
	LetterS Letter = "S"
	LetterL Letter = "L"
	LetterI Letter = "I"
	LetterM Letter = "M"
)

// Letters lists the indicators in CANSLIM order.
var Letters = []Letter{LetterC, LetterA, LetterN, LetterS, LetterL, LetterI, LetterM}

// StockLetters are the per-stock signals combined into CANSLI_all.
var StockLetters = []Letter{LetterC, LetterA, LetterN, LetterS, LetterL, LetterI}

// Criterion describes one indicator and the parameters it ran with.
type Criterion struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

// Manifest describes the criteria of one run, keyed by letter.
type Manifest map[Letter]Criterion
