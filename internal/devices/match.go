package devices

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// maxSuggestDistance is the largest Levenshtein distance still considered
// a plausible misspelling of a device name.
const maxSuggestDistance = 3

// Suggest returns directory device names that plausibly match the given
// name, closest first. Used to build "did you mean" clarifications for
// ambiguous commands. Returns nil when nothing is close enough.
func Suggest(name string, devs []Device) []string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}

	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, d := range devs {
		target := strings.ToLower(d.Name)
		dist := matchr.Levenshtein(name, target)
		if strings.Contains(target, name) {
			dist = 0
		}
		if dist <= maxSuggestDistance {
			candidates = append(candidates, scored{name: d.Name, dist: dist})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].dist < candidates[j].dist
	})

	out := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.name] {
			continue
		}
		seen[c.name] = true
		out = append(out, c.name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
