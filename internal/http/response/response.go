// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков: успешных ответов, ошибок
// и сообщений валидации в едином формате.
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/content-generator/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Status принимает значения "OK" или "Error". Error заполняется при неуспехе, Data при успехе.
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

const (
	// StatusOK значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// OK возвращает успешный Response без данных.
func OK() Response {
	return Response{Status: StatusOK}
}

// OKWithData возвращает успешный Response с переданными данными.
func OKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает Response с ошибкой и переданным сообщением.
func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError формирует Response на основе ошибок валидации.
// Каждое нарушение превращается в читаемый текст, тексты объединяются через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

// FromError сопоставляет ошибку предметной области с HTTP-статусом и сообщением для клиента.
// Неизвестные ошибки дают 500 без подробностей.
func FromError(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest, detail(err, models.ErrValidation)
	case errors.Is(err, models.ErrUnknownPlan):
		return http.StatusBadRequest, models.ErrUnknownPlan.Error()
	case errors.Is(err, models.ErrEmailTaken):
		return http.StatusBadRequest, models.ErrEmailTaken.Error()
	case errors.Is(err, models.ErrUnauthenticated):
		return http.StatusUnauthorized, models.ErrUnauthenticated.Error()
	case errors.Is(err, models.ErrInvalidCredentials):
		return http.StatusUnauthorized, models.ErrInvalidCredentials.Error()
	case errors.Is(err, models.ErrPaymentNotSucceeded):
		return http.StatusPaymentRequired, models.ErrPaymentNotSucceeded.Error()
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, models.ErrForbidden.Error()
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusForbidden, detail(err, models.ErrInvalidTransition)
	case errors.Is(err, models.ErrAccountNotFound):
		return http.StatusNotFound, models.ErrAccountNotFound.Error()
	case errors.Is(err, models.ErrPaymentNotFound):
		return http.StatusNotFound, models.ErrPaymentNotFound.Error()
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict, models.ErrConflict.Error()
	case errors.Is(err, models.ErrLimitExceeded):
		return http.StatusTooManyRequests, models.ErrLimitExceeded.Error()
	case errors.Is(err, models.ErrUpstreamFailure):
		return http.StatusInternalServerError, "upstream service failure"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// detail возвращает текст ошибки, начиная с сентинела, без префиксов операций.
func detail(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}
