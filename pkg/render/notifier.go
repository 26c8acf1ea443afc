package render

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-formengine/internal/ctxlog"
	"github.com/goliatone/go-formengine/pkg/locale"
)

// NoticeLevel classifies a toast-style message.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user-facing message raised outside of field errors.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier surfaces notices to the operator.
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, notice Notice)

// Notify calls fn.
func (fn NotifierFunc) Notify(ctx context.Context, notice Notice) {
	fn(ctx, notice)
}

// LogNotifier writes notices to a logger. A nil Logger uses the context
// logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(ctx context.Context, notice Notice) {
	logger := n.Logger
	if logger == nil {
		logger = ctxlog.FromContext(ctx)
	}
	level := slog.LevelInfo
	if notice.Level == NoticeError {
		level = slog.LevelError
	}
	logger.Log(ctx, level, notice.Message, "notice", string(notice.Level))
}

func genericFailure(l locale.Locale) string {
	return l.Pick("Something went wrong. Please try again.", "حدث خطأ ما. يرجى المحاولة مرة أخرى.")
}

func genericSuccess(l locale.Locale, mode Mode) string {
	if mode == ModeUpdate {
		return l.Pick("Your changes were saved.", "تم حفظ التغييرات.")
	}
	return l.Pick("Form submitted successfully.", "تم إرسال النموذج بنجاح.")
}
