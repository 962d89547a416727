package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/frontandrew/triplog/internal/domain"
	"github.com/frontandrew/triplog/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// respondJSON отправляет JSON ответ
func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondSuccess отправляет {"success":true,"data":...}
func respondSuccess(w http.ResponseWriter, code int, data interface{}) {
	respondJSON(w, code, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondError отправляет JSON ответ с ошибкой
func respondError(w http.ResponseWriter, code int, message string) {
	respondJSON(w, code, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

// respondServiceError переводит ошибку сервиса в HTTP статус.
// Ошибки валидации отдаются как есть - в них причина отказа для пользователя.
func respondServiceError(w http.ResponseWriter, log logger.Logger, err error, op string) {
	switch {
	case domain.IsValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrTripNotFound),
		errors.Is(err, domain.ErrVehicleNotFound),
		errors.Is(err, domain.ErrBranchNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidSession),
		errors.Is(err, domain.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrDeleteForbidden):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrAuthNotConfigured):
		log.Error("Server misconfigured", map[string]interface{}{
			"op":    op,
			"error": err,
		})
		respondError(w, http.StatusInternalServerError, "server misconfigured")
	default:
		log.Error("Failed to "+op, map[string]interface{}{
			"error": err,
		})
		respondError(w, http.StatusInternalServerError, "Failed to "+op)
	}
}

// getPathParam извлекает параметр из пути URL
func getPathParam(r *http.Request, param string) string {
	return chi.URLParam(r, param)
}

// parseUUIDParam разбирает ID из пути; пустой или неверный ID - ok=false
func parseUUIDParam(r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(getPathParam(r, param))
	return id, err == nil
}

// parseAmount разбирает целое из поля формы, допуская разделители разрядов: "12,345"
func parseAmount(raw string) (int64, error) {
	cleaned := strings.NewReplacer(",", "", " ", "", "_", "").Replace(strings.TrimSpace(raw))
	if cleaned == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseInt(cleaned, 10, 64)
}

// formReadings разбирает показания одометра, заряда и карты из формы
func formReadings(r *http.Request) (odoEnd int64, evRemainPct int, hipassBalance int64, err error) {
	if odoEnd, err = parseAmount(r.PostFormValue("odoEnd")); err != nil {
		return 0, 0, 0, domain.ErrInvalidOdometer
	}

	if evRemainPct, err = strconv.Atoi(strings.TrimSpace(r.PostFormValue("evRemainPct"))); err != nil {
		return 0, 0, 0, domain.ErrInvalidEVRemainPct
	}

	// пустой баланс карты означает 0
	if raw := r.PostFormValue("hipassBalance"); strings.TrimSpace(raw) != "" {
		if hipassBalance, err = parseAmount(raw); err != nil {
			return 0, 0, 0, domain.ErrInvalidHipassBalance
		}
	}

	return odoEnd, evRemainPct, hipassBalance, nil
}
