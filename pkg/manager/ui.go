package manager

import (
	"fmt"
	"sort"
	"strings"
)

// UIOptions controls the Bubble Tea TUI.
type UIOptions struct {
	InitialQuery string

	// SortColumn is a display column name; empty keeps inventory order.
	SortColumn string
	SortDesc   bool

	// LogPath is shown by the log overlay.
	LogPath string
}

// candidate is an inventory row prepared for searching and display.
type candidate struct {
	Row        Row
	SearchText string
}

// buildCandidates constructs the searchable data for all rows.
func buildCandidates(inv *Inventory) []candidate {
	if inv == nil {
		return nil
	}
	cands := make([]candidate, 0, len(inv.Rows))
	for _, r := range inv.Rows {
		cands = append(cands, candidate{
			Row:        r,
			SearchText: strings.ToLower(strings.Join(r.Cells(), " ")),
		})
	}
	return cands
}

// filterCandidates keeps candidates matching query, preserving order.
//
// Query semantics:
// - Split query on whitespace into tokens.
// - All tokens must match (AND).
// - A token matches when it is a case-insensitive substring of any display column.
func filterCandidates(cands []candidate, query string) []candidate {
	tokens := strings.Fields(strings.ToLower(query))
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if matchesAll(c.SearchText, tokens) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAll(text string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(text, t) {
			return false
		}
	}
	return true
}

// FilterRows applies the search query to rows, preserving order.
func FilterRows(rows []Row, query string) []Row {
	inv := &Inventory{Rows: rows}
	cands := filterCandidates(buildCandidates(inv), query)
	out := make([]Row, len(cands))
	for i, c := range cands {
		out[i] = c.Row
	}
	return out
}

// sortCandidates orders candidates by a display column. Comparison is
// case-insensitive; IP columns compare numerically when both sides are
// addresses. Ties keep their current order.
func sortCandidates(cands []candidate, column string, desc bool) {
	if column == "" {
		return
	}
	less := func(a, b Row) bool {
		av, bv := a.Field(column), b.Field(column)
		if column == ColIP {
			if c, ok := compareIPs(av, bv); ok {
				return c < 0
			}
		}
		return strings.ToLower(av) < strings.ToLower(bv)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if desc {
			return less(cands[j].Row, cands[i].Row)
		}
		return less(cands[i].Row, cands[j].Row)
	})
}

// SortRows orders rows in place by a display column. See sortCandidates.
func SortRows(rows []Row, column string, desc bool) {
	cands := make([]candidate, len(rows))
	for i, r := range rows {
		cands[i] = candidate{Row: r}
	}
	sortCandidates(cands, column, desc)
	for i := range cands {
		rows[i] = cands[i].Row
	}
}

// nextSortColumn cycles through "", Name, IP, Subnet, Aliases, Comment.
func nextSortColumn(cur string) string {
	if cur == "" {
		return DisplayColumns[0]
	}
	for i, c := range DisplayColumns {
		if c == cur {
			if i+1 < len(DisplayColumns) {
				return DisplayColumns[i+1]
			}
			return ""
		}
	}
	return ""
}

// canonicalColumn maps a user-supplied column name to a display column.
func canonicalColumn(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", true
	}
	if c, ok := columnAliases[n]; ok {
		return c, true
	}
	return "", false
}

// ParseSortColumn resolves a column name given on the command line. An empty
// name means inventory order.
func ParseSortColumn(name string) (string, error) {
	c, ok := canonicalColumn(name)
	if !ok {
		return "", fmt.Errorf("unknown column %q (expected one of %s)", name, strings.Join(DisplayColumns, ", "))
	}
	return c, nil
}
