package render

import (
	"fmt"
	"strings"
	"time"
)

// Upload is a file picked by the operator.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ImageValue is the answer shape of an upload_image field. URL holds an
// existing image from a prefill record; File a newly picked replacement.
// Changed and Removed record what the operator did during the session.
type ImageValue struct {
	File    *Upload
	URL     string
	Changed bool
	Removed bool
}

// IsEmpty reports whether no image is attached.
func (v ImageValue) IsEmpty() bool {
	return v.File == nil && strings.TrimSpace(v.URL) == ""
}

// String returns the file name or the existing URL.
func (v ImageValue) String() string {
	if v.File != nil {
		return v.File.Filename
	}
	return v.URL
}

const (
	isoDate     = "2006-01-02"
	displayDate = "02/01/2006"
)

// NormalizeDate accepts dd/mm/yyyy, yyyy-mm-dd, RFC 3339 timestamps or a
// time.Time and returns yyyy-mm-dd.
func NormalizeDate(value any) (string, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(isoDate), nil
	case string:
		raw := strings.TrimSpace(v)
		if raw == "" {
			return "", nil
		}
		for _, layout := range []string{isoDate, displayDate, time.RFC3339} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(isoDate), nil
			}
		}
		return "", fmt.Errorf("render: invalid date %q", raw)
	default:
		return "", fmt.Errorf("render: unsupported date value %T", value)
	}
}

// DisplayDate formats a stored yyyy-mm-dd value as dd/mm/yyyy. Values that do
// not parse are returned unchanged.
func DisplayDate(stored string) string {
	t, err := time.Parse(isoDate, strings.TrimSpace(stored))
	if err != nil {
		return stored
	}
	return t.Format(displayDate)
}
