package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/hongminglow/reward-auth/internal/errutil"
	"github.com/hongminglow/reward-auth/internal/http/respond"
	"github.com/hongminglow/reward-auth/internal/logging"
	"github.com/hongminglow/reward-auth/internal/middleware"
	"github.com/hongminglow/reward-auth/internal/models"
	"github.com/hongminglow/reward-auth/internal/proxy"
)

// Forwarder relays a request to the event service.
type Forwarder interface {
	Forward(ctx context.Context, r proxy.Request) (*proxy.Response, error)
}

// ProxyHandler exposes the event service operations behind bearer auth.
type ProxyHandler struct {
	fwd    Forwarder
	tokens middleware.TokenParser
	logger *slog.Logger
}

// NewProxyHandler constructs the handler.
func NewProxyHandler(fwd Forwarder, tokens middleware.TokenParser, logger *slog.Logger) *ProxyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProxyHandler{fwd: fwd, tokens: tokens, logger: logger}
}

// Register attaches one authenticated route per forwarded operation.
func (h *ProxyHandler) Register(mux *http.ServeMux) {
	for _, route := range proxy.Routes {
		var roles []string
		if route.Admin {
			roles = models.AdminRoles
		}
		mux.Handle(route.Pattern(), middleware.Authenticate(h.tokens, roles, h.forward(route)))
	}
}

func (h *ProxyHandler) forward(route proxy.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.ClaimsFrom(r.Context())

		// A USER may only read their own request history.
		if owner := r.PathValue("identity"); owner != "" && claims.Role == models.RoleUser && owner != claims.Identity {
			respond.Error(w, http.StatusForbidden, "cannot read another user's history")
			return
		}

		var body []byte
		if route.HasBody {
			data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, respond.MaxBodyBytes))
			if err != nil {
				respond.Error(w, http.StatusBadRequest, "request body too large or unreadable")
				return
			}
			if !json.Valid(data) {
				respond.Error(w, http.StatusBadRequest, respond.ErrBadPayload.Error())
				return
			}
			body = data
		}

		header := http.Header{}
		header.Set("X-Auth-Identity", claims.Identity)
		header.Set("X-Auth-Role", claims.Role)
		if id := logging.RequestID(r.Context()); id != "" {
			header.Set(middleware.RequestIDHeader, id)
		}

		resp, err := h.fwd.Forward(r.Context(), proxy.Request{
			Method:   route.Method,
			Path:     r.URL.EscapedPath(),
			RawQuery: r.URL.RawQuery,
			Body:     body,
			Header:   header,
			Label:    route.Pattern(),
		})
		if err != nil {
			errutil.LogError(r.Context(), h.logger, "forward to event service failed", err)
			if errors.Is(err, proxy.ErrUnavailable) {
				respond.Error(w, http.StatusBadGateway, "event service unavailable")
				return
			}
			respond.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		respond.Raw(w, resp.StatusCode, resp.Header, resp.Body)
	}
}
