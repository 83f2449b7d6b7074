package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/go-chi/chi/v5"
)

// Response - общий конверт ответов API.
type Response struct {
	Success      bool   `json:"success"`
	Data         any    `json:"data,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Success:      false,
		ErrorMessage: message,
	}
}

func NewSuccessResponse(data any) *Response {
	return &Response{
		Success: true,
		Data:    data,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrInvalidPageSize):
		return http.StatusBadRequest, e.ErrInvalidPageSize.Error()
	case errors.Is(err, e.ErrInvalidPage):
		return http.StatusBadRequest, e.ErrInvalidPage.Error()
	case errors.Is(err, e.ErrInvalidQuantity):
		return http.StatusBadRequest, e.ErrInvalidQuantity.Error()
	case errors.Is(err, e.ErrInvalidProductID):
		return http.StatusBadRequest, e.ErrInvalidProductID.Error()
	case errors.Is(err, e.ErrEmptySessionID):
		return http.StatusBadRequest, e.ErrEmptySessionID.Error()
	case errors.Is(err, e.ErrInvalidReturnURL):
		return http.StatusBadRequest, e.ErrInvalidReturnURL.Error()
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrSessionBusy):
		return http.StatusConflict, e.ErrSessionBusy.Error()
	case errors.Is(err, e.ErrTooManyRequests):
		return http.StatusTooManyRequests, e.ErrTooManyRequests.Error()
	case errors.Is(err, e.ErrSessionStore):
		return http.StatusServiceUnavailable, e.ErrSessionStore.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	writeJSON(w, code, NewErrorResponse(msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, NewSuccessResponse(data))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// parseOptionalInt читает целый параметр запроса. Пустое значение - nil.
// Ошибка разбора оборачивается в kind.
func parseOptionalInt(r *http.Request, name string, kind error) (*int, error) {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, e.Wrap(name, kind)
	}

	return &v, nil
}

// parseProductID читает {id} из пути.
func parseProductID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidProductID
	}

	return id, nil
}

// isLocalURL разрешает только пути внутри сайта, чтобы returnUrl нельзя было
// использовать для открытого редиректа.
func isLocalURL(raw string) bool {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return u.Scheme == "" && u.Host == ""
}
