package grpcsvc

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// CodeOf сопоставляет доменную ошибку коду gRPC.
func CodeOf(err error) codes.Code {
	switch domain.KindOf(err) {
	case domain.KindProductNotFound, domain.KindCartNotFound, domain.KindOrderNotFound:
		return codes.NotFound
	case domain.KindInvalidQuantity, domain.KindValidation:
		return codes.InvalidArgument
	case domain.KindInsufficientStock, domain.KindCartEmpty, domain.KindInvalidTransition:
		return codes.FailedPrecondition
	case domain.KindPaymentFailed:
		return codes.Aborted
	case domain.KindStorage:
		return codes.Unavailable
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// statusError превращает ошибку сервиса в gRPC status и логирует сбои инфраструктуры.
func (s *StorefrontService) statusError(err error, operation string) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := CodeOf(err)
	entry := s.logger.WithError(err).WithFields(log.Fields{
		"operation": operation,
		"kind":      domain.KindOf(err),
	})
	switch code {
	case codes.Unavailable, codes.Internal:
		entry.Error("request failed")
		if code == codes.Internal {
			return status.Error(code, "internal error")
		}
	default:
		entry.Debug("request rejected")
	}
	return status.Error(code, err.Error())
}
