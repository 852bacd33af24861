// Package middleware decodes HTTP request bodies with a skemajson Codec and
// hands the result to the next handler through the request context.
package middleware

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	skemajson "github.com/reoring/skemajson"
)

// ctxKeyDecoded is a typed context key for storing Decoded[T].
// Using a generic struct type ensures uniqueness per T.
type ctxKeyDecoded[T any] struct{}

// ContextWithDecoded attaches a Decoded[T] to the context.
func ContextWithDecoded[T any](ctx context.Context, d skemajson.Decoded[T]) context.Context {
	return context.WithValue(ctx, ctxKeyDecoded[T]{}, d)
}

// DecodedFromContext retrieves a Decoded[T] from context.
func DecodedFromContext[T any](ctx context.Context) (skemajson.Decoded[T], bool) {
	v, ok := ctx.Value(ctxKeyDecoded[T]{}).(skemajson.Decoded[T])
	return v, ok
}

// DefaultReadOpt returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Bodies are capped at 1 MiB
// - Presence is collected
func DefaultReadOpt() skemajson.ReadOpt {
	return skemajson.ReadOpt{
		Strictness: skemajson.Strictness{OnDuplicateKey: skemajson.Error},
		MaxBytes:   1 << 20,
		Presence:   skemajson.PresenceOpt{Collect: true},
	}
}

// ErrorPayload shapes a decode error for JSON responses.
func ErrorPayload(err error) map[string]any {
	ce, ok := skemajson.AsCodecError(err)
	if !ok {
		return map[string]any{"error": map[string]string{"message": err.Error()}}
	}
	return map[string]any{"error": map[string]string{
		"code":    ce.Code,
		"path":    ce.Path,
		"message": ce.Message,
	}}
}

// Decode reads the request body as a T with c and opt, then calls next with
// the Decoded[T] in the request context. Undecodable bodies are answered
// with 400 and ErrorPayload.
func Decode[T any](c skemajson.Codec[T], opt skemajson.ReadOpt, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d, err := c.DecodeWithMeta(r.Context(), r.Body, opt)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorPayload(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithDecoded(r.Context(), d)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
