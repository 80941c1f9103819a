package retrieval

import "kbbot/internal/domain"

// DefaultSourceLimit caps how many distinct sources are surfaced to the user.
const DefaultSourceLimit = 3

// TopSources walks matched records in their distance-ascending order and
// collects distinct source filenames, best occurrence first, up to limit.
// A source that keeps appearing near the top outranks one that shows up once
// further down.
func TopSources(matched []domain.Neighbor, limit int) []string {
	if limit <= 0 {
		limit = DefaultSourceLimit
	}
	seen := make(map[string]struct{}, limit)
	sources := make([]string, 0, limit)
	for _, n := range matched {
		if _, ok := seen[n.Source]; ok {
			continue
		}
		seen[n.Source] = struct{}{}
		sources = append(sources, n.Source)
		if len(sources) == limit {
			break
		}
	}
	return sources
}
