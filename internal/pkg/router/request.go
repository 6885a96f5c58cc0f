package router

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
)

// MaxBodyBytes bounds every JSON body the portal accepts. Address and return
// forms are the largest and stay well under it.
const MaxBodyBytes = 64 << 10

// Request is what handlers receive.
type Request struct {
	*http.Request
}

func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetHeader(key string) string {
	return strings.TrimSpace(r.Header.Get(key))
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt reads an optional integer query value; absent means 0.
func (r *Request) GetQueryInt(key string) (int, error) {
	raw := r.GetQuery(key)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, goerror.NewInvalidInput(nil, key, "debe ser un número")
	}
	return v, nil
}

// DecodeBody reads exactly one JSON value of at most MaxBodyBytes into dst.
// Unknown fields are rejected.
func (r *Request) DecodeBody(dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes+1))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return goerror.NewInvalidInput(nil, typeErr.Field, "tipo de dato inválido")
		}
		return goerror.NewInvalidFormat()
	}
	if dec.InputOffset() > MaxBodyBytes {
		return goerror.NewInvalidFormat()
	}
	if dec.More() {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// BearerToken returns the token of an "Authorization: Bearer" header, or "".
func (r *Request) BearerToken() string {
	return bearerToken(r.Request)
}

// ClientIP is the caller address resolved from proxy headers.
func (r *Request) ClientIP() string {
	return clientIP(r.Request)
}
