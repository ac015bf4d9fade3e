// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cardforge/cardforge/pkg/api/middleware"
	"github.com/cardforge/cardforge/pkg/api/response"
	"github.com/cardforge/cardforge/pkg/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads and validates a request body into dst. On failure the
// error response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, log logger.Logger, dst any) bool {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		log.WarnContext(ctx, "Failed to decode request", "error", err)
		response.Error(w, http.StatusBadRequest, "Invalid request body", requestID)
		return false
	}

	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			log.ErrorContext(ctx, "Validation failed", "error", err)
			response.Error(w, http.StatusBadRequest, err.Error(), requestID)
			return false
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldPath(fe))
		}
		log.WarnContext(ctx, "Validation failed", "fields", fields)
		response.ValidationError(w, "Missing or invalid fields: "+strings.Join(fields, ", "), fields, requestID)
		return false
	}
	return true
}

// fieldPath drops the root struct name from a validator namespace:
// "GenerateCardWorkflowRequest.card.interests[0]" becomes "card.interests[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}
