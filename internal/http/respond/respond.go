// Package respond writes the gateway's JSON envelopes and relays raw
// upstream bodies.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// MaxBodyBytes bounds request bodies accepted by Decode.
const MaxBodyBytes = 1 << 20

// ErrBadPayload is returned by Decode for unreadable or malformed bodies.
var ErrBadPayload = errors.New("invalid JSON payload")

// Envelope wraps every response produced by the gateway itself. Relayed
// event service responses are not wrapped.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes data inside an envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	writeEnvelope(w, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an envelope without data.
func Error(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, Envelope{Code: status, Message: message})
}

// hopHeaders apply to a single connection and are never relayed.
var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Proxy-Connection",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
	"Content-Length",
}

// Raw relays an upstream response unchanged: status, end-to-end headers and
// body. CORS headers stay under the gateway's control and Vary values are
// merged with the gateway's own.
func Raw(w http.ResponseWriter, status int, header http.Header, body []byte) {
	skip := make(map[string]bool, len(hopHeaders))
	for _, h := range hopHeaders {
		skip[h] = true
	}
	for _, v := range header.Values("Connection") {
		for _, token := range strings.Split(v, ",") {
			if token = strings.TrimSpace(token); token != "" {
				skip[http.CanonicalHeaderKey(token)] = true
			}
		}
	}

	dst := w.Header()
	for key, values := range header {
		key = http.CanonicalHeaderKey(key)
		switch {
		case skip[key], strings.HasPrefix(key, "Access-Control-"):
			continue
		case key == "Vary":
		default:
			dst.Del(key)
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Warn("respond: relay body", "status", status, "error", err)
	}
}

// Decode reads one JSON document of at most MaxBodyBytes into dst.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(ErrBadPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrBadPayload
	}
	return nil
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(env.Code)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Warn("respond: encode envelope", "code", env.Code, "error", err)
	}
}
