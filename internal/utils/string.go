package utils

import (
	"fmt"
	"sort"
	"strings"
)

// FormatScores renders a score map as a labelled block, one player per line
// in lexical order, for log output.
func FormatScores(label string, scores map[string]int64) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("----- %s -----\n", label))

	if len(scores) == 0 {
		sb.WriteString("(Empty)\n")
	} else {
		players := make([]string, 0, len(scores))
		for p := range scores {
			players = append(players, p)
		}
		sort.Strings(players)
		for _, p := range players {
			sb.WriteString(fmt.Sprintf("[%s]: %+d\n", p, scores[p]))
		}
	}

	sb.WriteString("--------------------\n")
	return sb.String()
}
