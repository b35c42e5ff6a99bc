package chatui

// Theme holds every player-visible string the toolkit renders. Format
// strings take a single %s unless noted.
type Theme struct {
	Header string
	Footer string

	EditButton        string
	CancelInputButton string
	InputPrompt       string // field name
	InvalidInput      string
	InputCancelled    string
	Label             string // field label
	Value             string // field value
	NotSet            string

	PrevButton   string
	NextButton   string
	PrevInactive string
	NextInactive string
	PageDisplay  string // current page, page count
	EntryCount   string // entry count
}

// DefaultTheme returns the built-in English theme.
func DefaultTheme() Theme {
	return Theme{
		Header:            "=================================",
		Footer:            "=================================",
		EditButton:        "[edit]",
		CancelInputButton: "[cancel]",
		InputPrompt:       "Enter a value for %s in chat.",
		InvalidInput:      "That value is not valid, try again.",
		InputCancelled:    "Input cancelled.",
		Label:             "%s: ",
		Value:             "%s ",
		NotSet:            "(not set) ",
		PrevButton:        "[<<]",
		NextButton:        "[>>]",
		PrevInactive:      " << ",
		NextInactive:      " >> ",
		PageDisplay:       " page %s of %s ",
		EntryCount:        "(%s entries)",
	}
}

func (t Theme) isZero() bool { return t == Theme{} }
