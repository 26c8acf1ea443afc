package validation

import (
	"fmt"

	"github.com/goliatone/go-formengine/pkg/locale"
)

type messageKind int

const (
	msgRequired messageKind = iota
	msgExactLength
	msgMinLength
	msgMaxLength
	msgInvalid
)

// Each rule carries its own English and Arabic phrasing; Arabic is not a
// word-for-word template of the English text.
var catalog = map[messageKind]map[locale.Locale]string{
	msgRequired: {
		locale.English: "%[1]s is required",
		locale.Arabic:  "حقل %[1]s مطلوب",
	},
	msgExactLength: {
		locale.English: "%[1]s must be exactly %[2]d characters",
		locale.Arabic:  "يجب أن يتكون %[1]s من %[2]d أحرف بالضبط",
	},
	msgMinLength: {
		locale.English: "%[1]s must be at least %[2]d characters",
		locale.Arabic:  "يجب ألا يقل %[1]s عن %[2]d أحرف",
	},
	msgMaxLength: {
		locale.English: "%[1]s must be no more than %[2]d characters",
		locale.Arabic:  "يجب ألا يزيد %[1]s عن %[2]d أحرف",
	},
	msgInvalid: {
		locale.English: "%[1]s is not valid",
		locale.Arabic:  "قيمة %[1]s غير صالحة",
	},
}

func message(kind messageKind, l locale.Locale, label string, n int) string {
	forms := catalog[kind]
	format, ok := forms[l]
	if !ok {
		format = forms[locale.Default]
	}
	if kind == msgRequired || kind == msgInvalid {
		return fmt.Sprintf(format, label)
	}
	return fmt.Sprintf(format, label, n)
}
