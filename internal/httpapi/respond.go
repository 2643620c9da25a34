package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/unkn0wn-root/menucache"
	"github.com/unkn0wn-root/menucache/internal/service"
)

type detail struct {
	Detail string `json:"detail"`
}

type deleted struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

func deletedMsg(kind string) deleted {
	return deleted{Status: true, Message: fmt.Sprintf("The %s has been deleted", kind)}
}

// unprocessable marks client input errors answered with 422.
type unprocessable struct{ msg string }

func (e unprocessable) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return unprocessable{msg: fmt.Sprintf(format, args...)}
}

func respondJSON(w http.ResponseWriter, log menucache.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response", menucache.Fields{"err": err})
	}
}

// respondErr maps service errors onto status codes. Anything unknown is logged
// and answered with a generic 500.
func respondErr(w http.ResponseWriter, r *http.Request, log menucache.Logger, err error) {
	var (
		nf  *service.NotFoundError
		upe unprocessable
		ve  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &nf):
		respondJSON(w, log, http.StatusNotFound, detail{nf.Error()})
	case errors.As(err, &upe):
		respondJSON(w, log, http.StatusUnprocessableEntity, detail{upe.msg})
	case errors.As(err, &ve):
		respondJSON(w, log, http.StatusUnprocessableEntity, detail{formatValidation(ve)})
	case errors.Is(err, service.ErrInvalidPrice), errors.Is(err, service.ErrEmptyUpdate):
		respondJSON(w, log, http.StatusUnprocessableEntity, detail{err.Error()})
	default:
		log.Error("request failed", menucache.Fields{"method": r.Method, "path": r.URL.Path, "err": err})
		respondJSON(w, log, http.StatusInternalServerError, detail{"internal server error"})
	}
}

func formatValidation(ve validator.ValidationErrors) string {
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "numeric":
			msgs = append(msgs, field+" must be numeric")
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
