package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/errs"
	"github.com/ieadmsumademats-hash/IEADMS-KIDS/internal/logx"
)

var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.Validation:
		return http.StatusBadRequest
	case errs.NotFound:
		return http.StatusNotFound
	case errs.Conflict, errs.AlreadyPresent, errs.AlreadyDeparted, errs.Precondition:
		return http.StatusConflict
	case errs.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := errs.KindOf(err)
	status := statusFor(kind)
	code := errs.CodeOf(err)
	if code == "" {
		code = "internal"
	}
	if status == http.StatusInternalServerError {
		logx.L().WithError(err).Error("unhandled error")
		writeJSON(w, status, apiError{Error: code, Message: "internal error"})
		return
	}
	writeJSON(w, status, apiError{Error: code, Message: err.Error()})
}

// decode parses the JSON body into dst and runs struct validation.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errs.New(errs.Validation, "bad_json", "invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return errs.New(errs.Validation, "invalid_fields", "invalid request: %v", err)
	}
	return nil
}
