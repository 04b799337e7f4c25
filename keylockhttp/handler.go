/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package keylockhttp provides an HTTP handler for introspection of a keylock.Lock.
// It can only query states and cancel queued work, it never runs callbacks.
package keylockhttp

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/acronis/go-keylock/keylock"
	"github.com/acronis/go-keylock/log"
)

const urlParamIdentifier = "identifier"

// StateResponse is a body of the state query response.
type StateResponse struct {
	Identifier string            `json:"identifier"`
	State      keylock.LockState `json:"state"`
}

// CancelResponse is a body of the cancel response.
type CancelResponse struct {
	Identifier string `json:"identifier"`
	Canceled   int    `json:"canceled"`
}

// HandlerOpts represents options for the handler.
type HandlerOpts struct {
	// MetricsHandler is served on "GET /metrics" if not nil (e.g. promhttp.Handler()).
	MetricsHandler http.Handler
}

// NewHandler creates a new chi.Router that serves:
//
//	GET  /locks/{identifier}                  returns the identifier state
//	POST /locks/{identifier}/cancel?mode=all  cancels queued work ("current" mode is used by default)
func NewHandler(l *keylock.Lock, logger log.FieldLogger) chi.Router {
	return NewHandlerWithOpts(l, logger, HandlerOpts{})
}

// NewHandlerWithOpts creates a new chi.Router with the provided options.
// Logger may be nil, in this case logging is disabled.
func NewHandlerWithOpts(l *keylock.Lock, logger log.FieldLogger, opts HandlerOpts) chi.Router {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	h := &handler{lock: l, logger: logger}

	router := chi.NewRouter()
	router.NotFound(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusNotFound, NewError(ErrCodeNotFound, "Not found."), logger)
	})
	router.MethodNotAllowed(func(rw http.ResponseWriter, r *http.Request) {
		respondError(rw, http.StatusMethodNotAllowed, NewError(ErrCodeMethodNotAllowed, "Method not allowed."), logger)
	})
	if opts.MetricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}
	router.Route("/locks/{"+urlParamIdentifier+"}", func(r chi.Router) {
		r.Get("/", h.getState)
		r.Post("/cancel", h.cancel)
	})
	return router
}

type handler struct {
	lock   *keylock.Lock
	logger log.FieldLogger
}

// identifierFromRequest returns the decoded identifier.
// chi routes on URL.RawPath when it's set, so the parameter stays escaped in this case (e.g. "%2Ftmp%2Ffile").
func identifierFromRequest(r *http.Request) (string, error) {
	identifier := chi.URLParam(r, urlParamIdentifier)
	if r.URL.RawPath == "" {
		return identifier, nil
	}
	return url.PathUnescape(identifier)
}

func (h *handler) requireIdentifier(rw http.ResponseWriter, r *http.Request) (string, bool) {
	identifier, err := identifierFromRequest(r)
	if err != nil {
		apiErr := NewError(ErrCodeInvalidArgument, "Identifier is not a valid escaped path segment.").
			AddContext("identifier", chi.URLParam(r, urlParamIdentifier))
		respondError(rw, http.StatusBadRequest, apiErr, h.logger)
		return "", false
	}
	return identifier, true
}

func (h *handler) getState(rw http.ResponseWriter, r *http.Request) {
	identifier, ok := h.requireIdentifier(rw, r)
	if !ok {
		return
	}
	respondCodeAndJSON(rw, http.StatusOK, StateResponse{Identifier: identifier, State: h.lock.GetState(identifier)}, h.logger)
}

func (h *handler) cancel(rw http.ResponseWriter, r *http.Request) {
	identifier, ok := h.requireIdentifier(rw, r)
	if !ok {
		return
	}
	mode := keylock.CancelMode(r.URL.Query().Get("mode"))
	canceled, err := h.lock.Cancel(identifier, mode)
	if err != nil {
		if errors.Is(err, keylock.ErrInvalidArgument) {
			apiErr := NewError(ErrCodeInvalidArgument, err.Error()).AddContext("mode", string(mode))
			respondError(rw, http.StatusBadRequest, apiErr, h.logger)
			return
		}
		h.logger.Error("failed to cancel queued waiters", log.String("identifier", identifier), log.Error(err))
		respondError(rw, http.StatusInternalServerError, NewError(ErrCodeInternal, "Internal error."), h.logger)
		return
	}
	h.logger.Info("queued waiters are canceled via HTTP",
		log.String("identifier", identifier), log.Int("canceled", canceled), log.String("mode", string(mode)))
	respondCodeAndJSON(rw, http.StatusOK, CancelResponse{Identifier: identifier, Canceled: canceled}, h.logger)
}
