package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/restaurantia/api/internal/domain"
	"github.com/restaurantia/api/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that tags like gte=0
	// work on prices.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

type validationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// normalizer is implemented by requests that clean up their fields
// (trimming, case folding) before validation.
type normalizer interface {
	normalize()
}

// decodeAndValidate decodes the JSON body into req, normalizes it when req
// implements normalizer, and runs its validate tags.
// Returns false after writing a 400 response; the caller should return.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if n, ok := req.(normalizer); ok {
		n.normalize()
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			// Drop the struct name: "createOrderRequest.items[0].precio" -> "items[0].precio".
			_, field, _ := strings.Cut(fe.Namespace(), ".")
			fields[field] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: "validation failed", Fields: fields})
		return false
	}
	return true
}

// parseID reads a numeric URL parameter. Returns false after writing a 400.
func parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + param})
		return 0, false
	}
	return id, true
}

// writeServiceError maps a service error to its HTTP status. Unknown errors
// are logged and reported as 500 without details.
func writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case isValidationError(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case isNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case isConflict(err):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		internalError(w, err, op)
	}
}

func internalError(w http.ResponseWriter, err error, op string) {
	log.Error().Err(err).Msg(op)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// isValidationError checks if the error is a known validation error
// from the service layer that should result in 400 Bad Request.
func isValidationError(err error) bool {
	return errors.Is(err, service.ErrEmptyItems) ||
		errors.Is(err, service.ErrInvalidItem) ||
		errors.Is(err, service.ErrInvalidQuantity) ||
		errors.Is(err, service.ErrInvalidGroupSize) ||
		errors.Is(err, service.ErrTableMove) ||
		errors.Is(err, service.ErrInvalidPaymentMethod) ||
		errors.Is(err, service.ErrInsufficientPayment) ||
		errors.Is(err, service.ErrInvalidCapacity) ||
		errors.Is(err, service.ErrNameRequired) ||
		errors.Is(err, service.ErrInvalidAmount) ||
		errors.Is(err, service.ErrNoIngredients) ||
		errors.Is(err, service.ErrUnknownIngredient) ||
		errors.Is(err, service.ErrInvalidDate) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrEmptyOrder) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrInvalidReportRange)
}

func isNotFound(err error) bool {
	return errors.Is(err, service.ErrOrderNotFound) ||
		errors.Is(err, service.ErrTableNotFound) ||
		errors.Is(err, service.ErrIngredientNotFound) ||
		errors.Is(err, service.ErrRecipeNotFound) ||
		errors.Is(err, service.ErrConfigurationNotFound)
}

// isConflict covers integrity conflicts: occupied tables, referenced rows,
// disallowed transitions and concurrent status changes.
func isConflict(err error) bool {
	return errors.Is(err, domain.ErrTableOccupied) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, service.ErrStatusConflict) ||
		errors.Is(err, service.ErrIngredientInUse) ||
		errors.Is(err, service.ErrDuplicateName)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}
