package http

import (
	"encoding/json"
	"net/http"

	"github.com/fwojciec/citydir"
)

// codes maps application error codes to HTTP status codes.
var codes = map[string]int{
	citydir.ECONFLICT:    http.StatusConflict,
	citydir.EINVALID:     http.StatusBadRequest,
	citydir.ENOTFOUND:    http.StatusNotFound,
	citydir.EUNAVAILABLE: http.StatusServiceUnavailable,
	citydir.EINTERNAL:    http.StatusInternalServerError,
}

// ErrorStatusCode returns the HTTP status code for an application error code.
func ErrorStatusCode(code string) int {
	if v, ok := codes[code]; ok {
		return v
	}
	return http.StatusInternalServerError
}

// fromStatusCode returns the application error code for an HTTP status code.
func fromStatusCode(status int) string {
	for code, v := range codes {
		if v == status {
			return code
		}
	}
	if status == http.StatusTooManyRequests {
		return citydir.EUNAVAILABLE
	}
	return citydir.EINTERNAL
}

// ErrorResponse is the JSON body of every failed API request.
type ErrorResponse struct {
	Code        string               `json:"error"`
	Description string               `json:"error_description"`
	Fields      []citydir.FieldError `json:"fields,omitempty"`
}

// Error writes err as a JSON error envelope. Internal errors are logged and
// their details hidden from the caller.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code := citydir.ErrorCode(err)
	if code == citydir.EINTERNAL {
		s.logger.Error("internal error", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeError(w, ErrorStatusCode(code), err)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{
		Code:        citydir.ErrorCode(err),
		Description: citydir.ErrorMessage(err),
		Fields:      citydir.ErrorFields(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
