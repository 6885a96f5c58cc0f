package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/portal/internal/pkg/config"
	"github.com/shandysiswandi/portal/internal/pkg/goerror"
	"github.com/shandysiswandi/portal/internal/pkg/instrument"
	"github.com/shandysiswandi/portal/internal/pkg/jwt"
	"github.com/shandysiswandi/portal/internal/pkg/uid"
	"github.com/shandysiswandi/portal/internal/pkg/validator"
)

const defaultSuccessMessage = "Solicitud procesada"

type errorResponse struct {
	Message string            `json:"message" example:"Código incorrecto"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message" example:"Solicitud procesada"`
	Data    any            `json:"data" swaggertype:"object"`
	Meta    map[string]any `json:"meta,omitempty" swaggertype:"object"`
}

// Handler returns the data to encode or an error. Data may implement
// StatusCode() int, Message() string and Meta() map[string]any to shape the
// envelope; a nil result or StatusCode 204 writes no body.
type Handler func(r *Request) (any, error)

type Config struct {
	Config      config.Config
	UUID        uid.StringID
	JWT         jwt.JWT
	Instrument  instrument.Instrumentation
	ServiceName string
}

// publicRoutes skip the bearer check. The verification screens run before a
// portal session exists; analytics reads the token when present.
var publicRoutes = routeSet{
	http.MethodGet: {
		"/":                             {},
		"/health":                       {},
		"/api/v1/auth/verification/:id": {},
		"/api/v1/auth/t1pay/url":        {},
	},
	http.MethodPost: {
		"/api/v1/auth/send-code":               {},
		"/api/v1/auth/verification/:id/digit":  {},
		"/api/v1/auth/verification/:id/paste":  {},
		"/api/v1/auth/verification/:id/verify": {},
		"/api/v1/auth/verification/:id/resend": {},
		"/api/v1/auth/t1pay/callback":          {},
		"/api/v1/analytics":                    {},
	},
	http.MethodDelete: {
		"/api/v1/auth/verification/:id": {},
	},
}

type Router struct {
	hr  *httprouter.Router
	mws []Middleware
}

// NewRouter applies, outermost first: panic recovery, client IP, correlation
// id, tracing and logs, maintenance mode, then bearer authentication.
func NewRouter(cfg Config) *Router {
	r := &Router{
		hr: &httprouter.Router{
			RedirectTrailingSlash:  true,
			RedirectFixedPath:      true,
			HandleMethodNotAllowed: true,
			HandleOPTIONS:          true,
			SaveMatchedRoutePath:   true,
			NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "Recurso no encontrado"}, http.StatusNotFound)
			}),
			MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, errorResponse{Message: "Método no permitido"}, http.StatusMethodNotAllowed)
			}),
		},
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP,
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, cfg.Instrument),
			middlewareMaintenance(cfg.Config),
			middlewareAuthentication(cfg.JWT, publicRoutes),
		},
	}

	r.hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "Welcome to " + cfg.ServiceName}, http.StatusOK)
	})
	r.hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"message": "ok", "service": cfg.ServiceName}, http.StatusOK)
	})

	return r
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws)
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws)
}

func (r *Router) PATCH(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPatch, path, h, mws)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws)
}

// endpoint registers h behind the router middlewares followed by the
// endpoint's own, e.g. a rate limit.
func (r *Router) endpoint(method, path string, h Handler, mws []Middleware) {
	final := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		resp, err := h(&Request{Request: req})
		if err != nil {
			if rec, ok := w.(interface{ SetError(error) }); ok {
				rec.SetError(err)
			}
			writeError(w, err)
			return
		}
		writeSuccess(w, resp)
	})

	r.hr.Handler(method, path, Chain(final, slices.Concat(r.mws, mws)...))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// writeError shows the customer only goerror messages; anything else is
// reported as an internal error.
func writeError(w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: goerror.MsgInternal}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg(), Error: gerr.Fields()}

	var verr validator.V10ValidationError
	if errors.As(err, &verr) {
		resp.Error = verr.Values()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeSuccess(w http.ResponseWriter, resp any) {
	status := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		status = sc.StatusCode()
	}
	if resp == nil || status == http.StatusNoContent {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := successResponse{Message: defaultSuccessMessage, Data: resp}
	if m, ok := resp.(interface{ Message() string }); ok {
		env.Message = m.Message()
	}
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		env.Meta = m.Meta()
	}

	writeJSON(w, env, status)
}

// writeJSON encodes before writing the header so an encoding failure can
// still answer 500.
func writeJSON(w http.ResponseWriter, data any, status int) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
		buf.Reset()
		//nolint:errcheck,errchkjson // static payload
		json.NewEncoder(&buf).Encode(errorResponse{Message: goerror.MsgInternal})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // client went away
	w.Write(buf.Bytes())
}
