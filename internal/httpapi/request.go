package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxBody      = 1 << 20
)

type page struct {
	Offset int `validate:"gte=0"`
	Limit  int `validate:"gte=1,lte=1000"`
}

func (h *handler) page(r *http.Request) (page, error) {
	p := page{Limit: defaultLimit}
	q := r.URL.Query()
	for name, dst := range map[string]*int{"offset": &p.Offset, "limit": &p.Limit} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return page{}, invalid("%s must be an integer", name)
		}
		*dst = n
	}
	if err := h.validate.Struct(p); err != nil {
		return page{}, err
	}
	return p, nil
}

// pathID parses the {name} URL parameter as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, invalid("%s must be a UUID", name)
	}
	return id, nil
}

func pathIDs(r *http.Request, names ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(names))
	for i, n := range names {
		id, err := pathID(r, n)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// decode reads a JSON body into v and validates it.
func (h *handler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("request body is empty")
		}
		return invalid("malformed body: %v", err)
	}
	return h.validate.Struct(v)
}
