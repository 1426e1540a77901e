package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// StatusOf maps a service error to an HTTP status. Business outcomes map by
// code; storage, cache and transport faults are 500.
func StatusOf(err error) int {
	if errors.Is(err, db.ErrInternal) {
		return http.StatusInternalServerError
	}
	switch errs.CodeOf(err) {
	case errs.CodeInvalidRequest, errs.CodeCallbackProcessingFailed, errs.CodeUnknownCallbackEvent:
		return http.StatusBadRequest
	case errs.CodeAccountNotFound, errs.CodeUnknownPayment:
		return http.StatusNotFound
	case errs.CodeAccountAlreadyActive, errs.CodeActivationInProgress, errs.CodeInvalidStatusTransition:
		return http.StatusConflict
	case errs.CodeInsufficientBalance, errs.CodeBelowMinAmount, errs.CodeExceedsMaxAmount, errs.CodeClientNotActive:
		return http.StatusUnprocessableEntity
	case errs.CodeInitializationFailed, errs.CodePaymentFailed, errs.CodePaymentLookupFailed:
		return http.StatusBadGateway
	case errs.CodeReferenceGenerationExhausted:
		return http.StatusServiceUnavailable
	}
	switch {
	case db.IsInvalid(err):
		return http.StatusBadRequest
	case db.IsNotFound(err):
		return http.StatusNotFound
	case db.IsConflict(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, logger *observability.Logger, component, method string, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError && !errs.IsBusiness(err) {
		logger.Error("handler error", "layer", "handler", "component", component, "method", method, "error", err.Error())
		writeJSON(w, status, errorResponse{Code: "Internal", Message: "internal error"})
		return
	}
	logger.Warn("handler rejected request", "layer", "handler", "component", component, "method", method, "status", status, "error", err.Error())

	resp := errorResponse{Code: string(errs.CodeOf(err)), Message: err.Error()}
	var be *errs.Error
	if errors.As(err, &be) {
		resp.Message = be.Error()
	}
	if resp.Code == "" {
		resp.Code = http.StatusText(status)
	}
	writeJSON(w, status, resp)
}
