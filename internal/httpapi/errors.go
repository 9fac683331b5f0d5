package httpapi

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// StatusOf сопоставляет вид доменной ошибки с HTTP-статусом.
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindProductNotFound, domain.KindCartNotFound, domain.KindOrderNotFound:
		return http.StatusNotFound
	case domain.KindInvalidQuantity, domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindInsufficientStock, domain.KindCartEmpty, domain.KindInvalidTransition:
		return http.StatusConflict
	case domain.KindPaymentFailed:
		return http.StatusPaymentRequired
	case domain.KindStorage:
		return http.StatusServiceUnavailable
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// 499 - нестандартный код nginx для закрытого клиентом соединения.
		return 499
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusOf(err)
	detail := errorDetail{Kind: string(domain.KindOf(err)), Message: err.Error()}

	var stock *domain.InsufficientStockError
	if errors.As(err, &stock) {
		available := stock.Available
		detail.ProductID = string(stock.ProductID)
		detail.Requested = stock.Requested
		detail.Available = &available
	}

	entry := h.logger.WithError(err).WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": code,
	})
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	if code == http.StatusInternalServerError {
		detail = errorDetail{Kind: "internal", Message: "internal error"}
	}
	writeJSON(w, code, errorBody{Error: detail})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: string(domain.KindValidation), Message: msg}})
}
