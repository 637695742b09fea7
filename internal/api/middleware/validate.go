package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"auth_api/internal/common"
	"auth_api/internal/common/validate"
)

// maxBodyBytes caps request bodies at 10 KB; payloads here are tiny JSON
// objects and anything larger is abuse.
const maxBodyBytes = 10 << 10

// Validate parses the JSON body, checks it against schema, and stores the
// normalized payload in the request context. An empty body validates as
// an empty payload so optional-only schemas accept it.
func Validate(schema validate.Schema, er *common.ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

			payload := map[string]any{}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
				er.Respond(w, r, common.E(common.ErrBadRequest, common.MsgInvalidPayload))
				return
			}

			normalized, err := schema.Apply(payload)
			if err != nil {
				er.Respond(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), PayloadCtxKey, normalized)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PayloadFromContext returns the validated payload stored by Validate.
func PayloadFromContext(ctx context.Context) map[string]any {
	payload, ok := ctx.Value(PayloadCtxKey).(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return payload
}
