// Package sl содержит вспомогательные атрибуты для логгера slog.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и текстом ошибки.
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Op атрибут с именем операции, в которой пишется лог.
func Op(op string) slog.Attr {
	return slog.String("op", op)
}

// RequestID атрибут с идентификатором HTTP-запроса.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}
