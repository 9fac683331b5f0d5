package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

const (
	// IdempotencyKeyHeader - заголовок с ключом идемпотентности.
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader выставляется на ответы, взятые из кэша.
	ReplayedHeader = "Idempotent-Replayed"
)

// idempotent выполняет run не более одного раза на ключ. Без заголовка запрос выполняется как обычно.
func (h *Handler) idempotent(w http.ResponseWriter, r *http.Request, scope string, body []byte, run func(ctx context.Context) (int, any, error)) {
	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if key == "" || !h.guard.Enabled() {
		code, resp, err := run(r.Context())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, code, resp)
		return
	}

	replay, err := h.guard.Begin(r.Context(), key, idempotency.Hash(scope, body))
	switch {
	case errors.Is(err, idempotency.ErrPayloadMismatch):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: errorDetail{Kind: "idempotency_mismatch", Message: err.Error()}})
		return
	case errors.Is(err, idempotency.ErrInProgress):
		writeJSON(w, http.StatusConflict, errorBody{Error: errorDetail{Kind: "idempotency_in_progress", Message: err.Error()}})
		return
	case err != nil:
		h.writeError(w, r, err)
		return
	case replay != nil:
		writeReplay(w, *replay)
		return
	}

	code, resp, runErr := run(r.Context())
	if runErr != nil {
		rec := httpRecorder{header: w.Header()}
		h.writeError(&rec, r, runErr)
		h.guard.Fail(r.Context(), key, rec.body, rec.code)
		writeRaw(w, rec.code, rec.body)
		return
	}

	data, err := json.Marshal(resp)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data = append(data, '\n')
	h.guard.Complete(r.Context(), key, data, code)
	writeRaw(w, code, data)
}

func writeReplay(w http.ResponseWriter, record domain.IdempotencyRecord) {
	code := record.StatusCode
	if code < 100 || code > 599 {
		code = http.StatusOK
		if record.Status == domain.IdempotencyStatusFailed {
			code = http.StatusInternalServerError
		}
	}
	w.Header().Set(ReplayedHeader, "true")
	writeRaw(w, code, record.ResponseBody)
}

func writeRaw(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// httpRecorder перехватывает ответ об ошибке, чтобы сохранить его для повторов.
type httpRecorder struct {
	header http.Header
	code   int
	body   []byte
}

func (r *httpRecorder) Header() http.Header { return r.header }

func (r *httpRecorder) WriteHeader(code int) { r.code = code }

func (r *httpRecorder) Write(p []byte) (int, error) {
	r.body = append(r.body, p...)
	return len(p), nil
}
