package optionsource

import (
	"slices"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Search filters items by a case-insensitive substring of the value or
// either label. Prefix matches sort first; otherwise list order is kept.
func Search(items []schema.FieldOption, query string, limit int, cfg Config) []schema.FieldOption {
	limit = cfg.normalized().clamp(limit)
	if limit == 0 {
		return nil
	}

	query = strings.TrimSpace(query)
	if query == "" {
		if cfg.Empty == EmptySearchTop {
			if len(items) <= limit {
				return append([]schema.FieldOption{}, items...)
			}
			return append([]schema.FieldOption{}, items[:limit]...)
		}
		return nil
	}

	q := strings.ToLower(query)
	matches := make([]matchedItem, 0, 32)
	for _, item := range items {
		prefix, ok := match(item, q)
		if !ok {
			continue
		}
		matches = append(matches, matchedItem{item: item, isPrefix: prefix})
	}

	slices.SortStableFunc(matches, func(a, b matchedItem) int {
		switch {
		case a.isPrefix == b.isPrefix:
			return 0
		case a.isPrefix:
			return -1
		default:
			return 1
		}
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]schema.FieldOption, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.item)
	}
	return out
}

func match(item schema.FieldOption, q string) (prefix, ok bool) {
	for _, candidate := range []string{item.Value, item.LabelEN, item.LabelAR} {
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, q) {
			return true, true
		}
		if strings.Contains(lower, q) {
			ok = true
		}
	}
	return false, ok
}

type matchedItem struct {
	item     schema.FieldOption
	isPrefix bool
}
