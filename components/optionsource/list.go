package optionsource

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// LoadItems reads one option per line as "value|label_en|label_ar". Missing
// labels fall back to the value, blank lines and "#" comments are skipped and
// repeated values keep their first occurrence.
func LoadItems(r io.Reader) ([]schema.FieldOption, error) {
	if r == nil {
		return nil, fmt.Errorf("optionsource: missing reader")
	}

	scanner := bufio.NewScanner(r)
	items := make([]schema.FieldOption, 0, 64)
	seen := map[string]struct{}{}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		value := strings.TrimSpace(parts[0])
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}

		labelEN := value
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			labelEN = strings.TrimSpace(parts[1])
		}
		labelAR := labelEN
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			labelAR = strings.TrimSpace(parts[2])
		}
		items = append(items, schema.FieldOption{
			ID:      value,
			Order:   len(items),
			Value:   value,
			LabelEN: labelEN,
			LabelAR: labelAR,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
