package timeline

import (
	"fmt"
	"strings"
)

// Mode selects how a result list is ordered by the provider and how it is
// displayed. Flat modes page a single list, bucketed modes group by date.
type Mode int

const (
	ModeRelevance Mode = iota
	ModeRecency
	ModePopularity
	ModeDay
	ModeMonth
	ModeYear
)

var modeNames = map[Mode]string{
	ModeRelevance:  "relevance",
	ModeRecency:    "recency",
	ModePopularity: "popularity",
	ModeDay:        "day",
	ModeMonth:      "month",
	ModeYear:       "year",
}

var modeTitles = map[Mode]string{
	ModeRelevance:  "Most relevant",
	ModeRecency:    "Newest first",
	ModePopularity: "Most popular",
	ModeDay:        "By day",
	ModeMonth:      "By month",
	ModeYear:       "By year",
}

// Modes lists every mode in menu order.
func Modes() []Mode {
	return []Mode{ModeDay, ModeMonth, ModeYear, ModeRecency, ModeRelevance, ModePopularity}
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// Title is the human readable label used in menus.
func (m Mode) Title() string {
	if title, ok := modeTitles[m]; ok {
		return title
	}
	return m.String()
}

// Bucketed reports whether results are grouped by a date label.
func (m Mode) Bucketed() bool {
	return m == ModeDay || m == ModeMonth || m == ModeYear
}

func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "bymonth":
		return ModeMonth, nil
	case "byday":
		return ModeDay, nil
	case "byyear":
		return ModeYear, nil
	case "relevancy":
		return ModeRelevance, nil
	case "publishedat", "newest":
		return ModeRecency, nil
	}
	for m, name := range modeNames {
		if name == s {
			return m, nil
		}
	}
	return ModeMonth, fmt.Errorf("unknown sort mode %q", s)
}
