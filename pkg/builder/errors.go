package builder

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formengine/pkg/locale"
)

var (
	// ErrNotConfirmed is returned when a removal was declined.
	ErrNotConfirmed = errors.New("builder: removal not confirmed")
	// ErrOutOfRange is returned for a section, field or option index that
	// does not exist.
	ErrOutOfRange = errors.New("builder: index out of range")
	// ErrNotChoice is returned when options are edited on a field type that
	// does not carry them.
	ErrNotChoice = errors.New("builder: field type does not take options")
	// ErrInvalidType is returned for a field type outside the enumeration.
	ErrInvalidType = errors.New("builder: invalid field type")
)

// Kind names the sibling list an operation works on.
type Kind string

const (
	KindSection Kind = "section"
	KindField   Kind = "field"
	KindOption  Kind = "option"
)

// Reason says why a guard refused an append.
type Reason string

const (
	ReasonMissing   Reason = "missing"
	ReasonDuplicate Reason = "duplicate"
)

// GuardError refuses an append while the previous sibling is missing its
// identity value or repeats one already taken. Alert carries the
// operator-facing text.
type GuardError struct {
	Kind   Kind
	Index  int
	Reason Reason
	en     string
	ar     string
}

func newGuardError(kind Kind, index int) *GuardError {
	e := &GuardError{Kind: kind, Index: index, Reason: ReasonMissing}
	switch kind {
	case KindSection:
		e.en = "Please add a label to the previous section before adding a new one."
		e.ar = "يرجى إضافة عنوان للقسم السابق قبل إضافة قسم جديد."
	case KindField:
		e.en = "Please give the previous field a name before adding a new one."
		e.ar = "يرجى إدخال اسم للحقل السابق قبل إضافة حقل جديد."
	default:
		e.en = "Please fill in the previous option value before adding a new one."
		e.ar = "يرجى إدخال قيمة الخيار السابق قبل إضافة خيار جديد."
	}
	return e
}

func newDuplicateError(kind Kind, index int) *GuardError {
	e := &GuardError{Kind: kind, Index: index, Reason: ReasonDuplicate}
	if kind == KindField {
		e.en = "The previous field's name is already used in this form. Choose a unique name before adding a new field."
		e.ar = "اسم الحقل السابق مستخدم بالفعل في هذا النموذج. اختر اسماً فريداً قبل إضافة حقل جديد."
	} else {
		e.en = "The previous option's value is already used in this field. Choose a unique value before adding a new option."
		e.ar = "قيمة الخيار السابق مستخدمة بالفعل في هذا الحقل. اختر قيمة فريدة قبل إضافة خيار جديد."
	}
	return e
}

func (e *GuardError) Error() string {
	if e.Reason == ReasonDuplicate {
		return fmt.Sprintf("builder: previous %s at index %d duplicates a sibling", e.Kind, e.Index)
	}
	return fmt.Sprintf("builder: previous %s at index %d is incomplete", e.Kind, e.Index)
}

// Alert returns the message to show the operator.
func (e *GuardError) Alert(l locale.Locale) string {
	return l.Pick(e.en, e.ar)
}
