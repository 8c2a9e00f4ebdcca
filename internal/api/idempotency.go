package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	inFlightLockTTL      = time.Minute
	maxIdempotencyKeyLen = 255
)

// IdempotencyStore is the Redis surface the idempotency middleware needs.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

// idempotencyRecord is stored per key. Status 0 marks a request still in
// flight.
type idempotencyRecord struct {
	Status      int    `json:"status"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response for a repeated Idempotency-Key
// from the same user. The header is optional; requests without it pass
// through. Server errors are not stored so the client can retry.
func Idempotency(store IdempotencyStore, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if store == nil || key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLen {
				writeError(w, r, http.StatusBadRequest, "Idempotency-Key too long")
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				writeError(w, r, http.StatusBadRequest, "request body too large")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			requestHash := hashBody(body)
			storeKey := store.IdempotencyKey(buildScope(r), key)

			lock, _ := json.Marshal(idempotencyRecord{RequestHash: requestHash})

			acquired, err := store.SetNX(ctx, storeKey, string(lock), inFlightLockTTL)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("acquire idempotency key")
				writeError(w, r, http.StatusServiceUnavailable, "idempotency store unavailable")
				return
			}

			if !acquired {
				replayStored(w, r, store, storeKey, requestHash)
				return
			}

			// A panicking handler becomes a 500 further up the chain; the
			// key is released before the panic continues.
			defer func() {
				if p := recover(); p != nil {
					delErr := store.Del(context.WithoutCancel(ctx), storeKey)
					if delErr != nil {
						zerolog.Ctx(ctx).Error().Err(delErr).Msg("release idempotency key after panic")
					}
					panic(p)
				}
			}()

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// Detached from the request so a client hang-up still releases
			// or stores the key.
			saveCtx := context.WithoutCancel(ctx)
			status := defaultStatus(rec.status)

			if status >= http.StatusInternalServerError {
				err = store.Del(saveCtx, storeKey)
				if err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("release idempotency key")
				}
				return
			}

			payload, err := json.Marshal(idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				ContentType: rec.Header().Get("Content-Type"),
				RequestHash: requestHash,
			})
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("marshal idempotency record")
				return
			}

			err = store.Set(saveCtx, storeKey, string(payload), ttl)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("persist idempotency record")
			}
		})
	}
}

func replayStored(w http.ResponseWriter, r *http.Request, store IdempotencyStore, key, requestHash string) {
	stored, err := store.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// released between SetNX and Get
			writeError(w, r, http.StatusConflict, "request with this Idempotency-Key is in progress")
			return
		}

		zerolog.Ctx(r.Context()).Error().Err(err).Msg("read idempotency record")
		writeError(w, r, http.StatusServiceUnavailable, "idempotency store unavailable")
		return
	}

	var record idempotencyRecord

	err = json.Unmarshal([]byte(stored), &record)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("decode idempotency record")
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if record.RequestHash != requestHash {
		writeError(w, r, http.StatusUnprocessableEntity, "Idempotency-Key reused with a different request body")
		return
	}
	if record.Status == 0 {
		writeError(w, r, http.StatusConflict, "request with this Idempotency-Key is in progress")
		return
	}

	decoded, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(record.Status)
	_, _ = w.Write(decoded)
}

// buildScope keys records per user and route so keys never collide
// across accounts.
func buildScope(r *http.Request) string {
	user := "anonymous"
	if c, ok := ClaimsFromContext(r.Context()); ok {
		user = strconv.FormatUint(c.UserID, 10)
	}

	return strings.Join([]string{user, r.Method, r.URL.Path}, "|")
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(v int) int {
	if v == 0 {
		return http.StatusOK
	}
	return v
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
