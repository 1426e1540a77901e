package validator

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"affiliate/kit/errs"
)

var (
	ErrInvalidJSON = errs.ErrInvalidRequest.WithMessage("invalid json")
	ErrEmptyBody   = errs.ErrInvalidRequest.WithMessage("empty body")
)

type JSON struct {
	MaxBytes int64
}

func NewJSON() *JSON {
	return &JSON{MaxBytes: 1 << 20}
}

// Decode reads exactly one JSON value with no unknown fields into dst.
func (v *JSON) Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, v.MaxBytes)
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(ErrInvalidJSON, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrInvalidJSON
	}
	return nil
}

// DecodeOptional is Decode for endpoints whose body may be omitted; an empty
// body leaves dst untouched.
func (v *JSON) DecodeOptional(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return nil
	}
	return v.Decode(w, r, dst)
}

// Raw returns the body bytes untouched, for payloads whose shape is owned by
// a third party.
func (v *JSON) Raw(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(w, r.Body, v.MaxBytes)
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, errors.Join(ErrInvalidJSON, err)
	}
	if len(raw) == 0 {
		return nil, ErrEmptyBody
	}
	return raw, nil
}
