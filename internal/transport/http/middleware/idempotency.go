package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"onehr/internal/transport/http/api"
)

const (
	IdempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

var (
	ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInFlight = errors.New("idempotency key is held by a request still in progress")
)

// StoredResponse is what a replayed request gets back.
type StoredResponse struct {
	Status int
	Body   json.RawMessage
}

// IdempotencyStore hands each key to exactly one request. Reserve returns
// (nil, nil) when the caller now owns the key, the stored response when an
// earlier request completed, ErrIdempotencyInFlight while the owner is still
// running and ErrIdempotencyConflict when the key was used for another body.
type IdempotencyStore interface {
	Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (*StoredResponse, error)
	Complete(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, resp StoredResponse) error
	Release(ctx context.Context, tenantID, userID, endpoint, key string) error
}

type PGIdempotencyStore struct {
	DB *pgxpool.Pool
}

func NewIdempotencyStore(db *pgxpool.Pool) *PGIdempotencyStore {
	return &PGIdempotencyStore{DB: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *PGIdempotencyStore) Reserve(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (*StoredResponse, error) {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (tenant_id, user_id, key, endpoint) DO NOTHING
  `, tenantID, userID, key, endpoint, requestHash)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var storedHash string
	var status *int
	var body []byte
	err = s.DB.QueryRow(ctx, `
    SELECT request_hash, status_code, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, tenantID, userID, key, endpoint).Scan(&storedHash, &status, &body)
	if errors.Is(err, pgx.ErrNoRows) {
		// released between the insert and the read
		return nil, ErrIdempotencyInFlight
	}
	if err != nil {
		return nil, err
	}
	if storedHash != requestHash {
		return nil, ErrIdempotencyConflict
	}
	if status == nil {
		return nil, ErrIdempotencyInFlight
	}
	return &StoredResponse{Status: *status, Body: body}, nil
}

func (s *PGIdempotencyStore) Complete(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, resp StoredResponse) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE idempotency_keys SET status_code = $6, response_json = $7
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
      AND request_hash = $5 AND status_code IS NULL
  `, tenantID, userID, key, endpoint, requestHash, resp.Status, resp.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Release drops a reservation that never completed so the key can be retried.
func (s *PGIdempotencyStore) Release(ctx context.Context, tenantID, userID, endpoint, key string) error {
	_, err := s.DB.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4 AND status_code IS NULL
  `, tenantID, userID, key, endpoint)
	return err
}

type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *capturingWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

// Idempotent makes authenticated POSTs carrying an Idempotency-Key header
// replay the first successful response instead of running again. Reusing a
// key with a different body is a 409, as is reusing it while the first
// request is still running. A key whose request failed is freed for retry.
func Idempotent(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			user, ok := GetUser(r.Context())
			if store == nil || key == "" || r.Method != http.MethodPost || !ok {
				next.ServeHTTP(w, r)
				return
			}
			requestID := GetRequestID(r.Context())
			if len(key) > maxIdempotencyKeyLen {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "idempotency key is too long", requestID)
				return
			}

			payload, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(payload))
			endpoint := r.Method + " " + r.URL.Path
			hash := RequestHash(payload)

			stored, err := store.Reserve(r.Context(), user.TenantID, user.UserID, endpoint, key, hash)
			switch {
			case errors.Is(err, ErrIdempotencyConflict):
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", requestID)
				return
			case errors.Is(err, ErrIdempotencyInFlight):
				w.Header().Set("Retry-After", "1")
				api.Fail(w, http.StatusConflict, "request_in_progress", "a request with this idempotency key is still in progress", requestID)
				return
			case err != nil:
				slog.Warn("idempotency reserve failed", "endpoint", endpoint, "err", err)
				next.ServeHTTP(w, r)
				return
			case stored != nil:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			ctx := context.WithoutCancel(r.Context())
			completed := false
			defer func() {
				if completed {
					return
				}
				if err := store.Release(ctx, user.TenantID, user.UserID, endpoint, key); err != nil {
					slog.Warn("idempotency release failed", "endpoint", endpoint, "err", err)
				}
			}()

			capture := &capturingWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status < 200 || capture.status > 299 || !json.Valid(capture.body.Bytes()) {
				return
			}
			err = store.Complete(ctx, user.TenantID, user.UserID, endpoint, key, hash,
				StoredResponse{Status: capture.status, Body: capture.body.Bytes()})
			if err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
				return
			}
			completed = true
		})
	}
}
