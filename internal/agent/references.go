package agent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/itsharex/gpt-4-search/internal/search"
)

var citation = regexp.MustCompile(`\[(\d+)\]`)

// References lists the links cited as [n] in answer, one "[n]: url" line per
// distinct id in ascending order. Citing an unknown id is an error.
func References(answer string, links *search.Links) (string, error) {
	seen := make(map[int]bool)
	var ids []int
	for _, m := range citation.FindAllStringSubmatch(answer, -1) {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return "", fmt.Errorf("invalid citation %q: %w", m[0], err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	var sb strings.Builder
	for _, id := range ids {
		link, err := links.Get(id)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "[%d]: %s\n", id, link.URL)
	}
	return sb.String(), nil
}
