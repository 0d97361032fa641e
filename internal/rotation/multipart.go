package rotation

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/castawaytv/castaway/internal/models"
)

// partPattern matches multi-part episode titles like "Heist (Part 2)"
// or "Heist - Part 2"
var partPattern = regexp.MustCompile(`(?i)^(.*?)[\s\-(]+part[\s.]*(\d+)\)?\s*$`)

// ParsePart extracts the multi-part grouping key and part number from
// a title like "Heist (Part 2)". The key folds in the show name so
// same-titled parts of different shows stay separate. ok is false for
// standalone titles.
func ParsePart(item *models.MediaItem) (key string, number int, ok bool) {
	matches := partPattern.FindStringSubmatch(item.Title)
	if matches == nil {
		return "", 0, false
	}
	number, err := strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, false
	}
	key = matches[1]
	if item.ShowName != nil {
		key = *item.ShowName + "/" + key
	}
	return key, number, true
}

// HasLaterPart reports whether members contains a higher-numbered part
// of the same multi-part title as item, meaning an airing of item
// leaves the sequence unfinished.
func HasLaterPart(members []Member, item *models.MediaItem) bool {
	key, number, ok := ParsePart(item)
	if !ok {
		return false
	}
	for _, m := range members {
		mk, mn, mok := ParsePart(m.MediaItem)
		if mok && mk == key && mn > number {
			return true
		}
	}
	return false
}

// groupMultiPart reorders a permutation so the parts of one title play
// adjacent and in part order. The group occupies the position of its
// earliest member in the shuffled pass.
func groupMultiPart(shuffled []Member) []Member {
	type part struct {
		member Member
		number int
	}
	groups := make(map[string][]part)
	order := make([]string, 0, len(shuffled))
	singles := make(map[string]bool)

	for i, m := range shuffled {
		key, number, ok := ParsePart(m.MediaItem)
		if !ok {
			// standalone items keep a unique slot
			key = "single/" + strconv.Itoa(i)
			singles[key] = true
			number = 0
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], part{member: m, number: number})
	}

	result := make([]Member, 0, len(shuffled))
	for _, key := range order {
		parts := groups[key]
		if !singles[key] {
			sort.SliceStable(parts, func(i, j int) bool {
				return parts[i].number < parts[j].number
			})
		}
		for _, p := range parts {
			result = append(result, p.member)
		}
	}
	return result
}
