package grpcsvc

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

// IdempotencyKeyHeader - ключ метаданных с idempotency-key.
const IdempotencyKeyHeader = "idempotency-key"

type idempotencyErrorPayload struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// withIdempotency выполняет handler не более одного раза на ключ.
// Повтор с тем же ключом и телом получает сохранённый ответ или ошибку.
func withIdempotency[T any](
	s *StorefrontService,
	ctx context.Context,
	method string,
	req any,
	newResp func() T,
	handler func(context.Context) (T, error),
) (T, error) {
	var zero T

	if !s.guard.Enabled() {
		return handler(ctx)
	}

	key, err := readIdempotencyKey(ctx)
	if err != nil {
		return zero, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Warn("failed to build idempotency request hash")
		return zero, status.Error(codes.Internal, "failed to initialize idempotency request")
	}

	replay, err := s.guard.Begin(ctx, key, idempotency.Hash(method, body))
	switch {
	case errors.Is(err, idempotency.ErrPayloadMismatch):
		return zero, status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, idempotency.ErrInProgress):
		return zero, status.Error(codes.Aborted, err.Error())
	case err != nil:
		return zero, s.statusError(err, method)
	case replay != nil:
		return replayResponse(s, *replay, newResp)
	}

	resp, runErr := handler(ctx)
	if runErr != nil {
		s.guard.Fail(ctx, key, encodeFailure(runErr), int(status.Code(runErr)))
		return resp, runErr
	}

	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to encode idempotent response")
		return resp, nil
	}
	s.guard.Complete(ctx, key, data, int(codes.OK))
	return resp, nil
}

func replayResponse[T any](s *StorefrontService, record domain.IdempotencyRecord, newResp func() T) (T, error) {
	var zero T
	if record.Status == domain.IdempotencyStatusFailed {
		return zero, decodeFailure(record)
	}
	if len(record.ResponseBody) == 0 {
		return zero, status.Error(codes.Internal, "idempotency cache is empty")
	}
	resp := newResp()
	if err := json.Unmarshal(record.ResponseBody, resp); err != nil {
		s.logger.WithError(err).WithField("idempotency_key", record.Key).Warn("failed to decode cached idempotency response")
		return zero, status.Error(codes.Internal, "failed to decode cached idempotency response")
	}
	return resp, nil
}

func encodeFailure(runErr error) []byte {
	st := status.Convert(runErr)
	code := st.Code()
	if code == codes.OK {
		code = codes.Internal
	}
	payload, err := json.Marshal(idempotencyErrorPayload{
		Code:    int32(code), //nolint:gosec // codes.Code is a bounded enum value.
		Message: st.Message(),
	})
	if err != nil {
		return nil
	}
	return payload
}

func decodeFailure(record domain.IdempotencyRecord) error {
	const fallback = "previous request with the same idempotency key failed"

	if len(record.ResponseBody) > 0 {
		var payload idempotencyErrorPayload
		if err := json.Unmarshal(record.ResponseBody, &payload); err == nil {
			if code, ok := codeFromInt(int(payload.Code)); ok && code != codes.OK {
				if payload.Message == "" {
					payload.Message = fallback
				}
				return status.Error(code, payload.Message)
			}
		}
	}
	if code, ok := codeFromInt(record.StatusCode); ok && code != codes.OK {
		return status.Error(code, fallback)
	}
	return status.Error(codes.Internal, fallback)
}

func codeFromInt(value int) (codes.Code, bool) {
	if value < int(codes.OK) || value > int(codes.Unauthenticated) {
		return codes.Internal, false
	}
	return codes.Code(uint32(value)), true //nolint:gosec // range checked above.
}

func readIdempotencyKey(ctx context.Context) (string, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(IdempotencyKeyHeader)
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			return strings.TrimSpace(values[0]), nil
		}
	}
	return "", status.Error(codes.InvalidArgument, "idempotency-key metadata is required")
}
