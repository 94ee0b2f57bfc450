package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bhavanagoud111/The-Robot-driver/internal/idempotency"
	"github.com/bhavanagoud111/The-Robot-driver/pkg/httpx"
)

const idempotencyHeader = "Idempotency-Key"

// handleIdempotentRequest replays or records the submit response when the
// request carries an Idempotency-Key. Returns false when the request should
// proceed normally.
func (s *Server) handleIdempotentRequest(w http.ResponseWriter, r *http.Request, execute func(http.ResponseWriter)) bool {
	if s.idempotency == nil {
		return false
	}
	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	if key == "" {
		return false
	}

	if cached, ok, err := s.idempotency.Lookup(r.Context(), key); err == nil && ok {
		writeEntry(w, cached)
		return true
	} else if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "idempotency_failed", err.Error())
		return true
	}

	owner := "submit-" + uuid.NewString()
	claimed, err := s.idempotency.Claim(r.Context(), key, owner, s.idempotencyLock)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "idempotency_failed", err.Error())
		return true
	}
	if !claimed {
		if cached, ok, waitErr := s.waitForEntry(r.Context(), key, 4*time.Second); waitErr == nil && ok {
			writeEntry(w, cached)
			return true
		}
		httpx.WriteError(w, http.StatusConflict, "request_in_progress", "another request with this idempotency key is still in progress")
		return true
	}
	defer func() {
		_ = s.idempotency.Release(context.Background(), key, owner)
	}()

	rec := httptest.NewRecorder()
	execute(rec)

	result := rec.Result()
	defer result.Body.Close()
	body, _ := io.ReadAll(result.Body)

	if result.StatusCode < 500 {
		_ = s.idempotency.Save(context.Background(), key, idempotency.Entry{
			StatusCode:  result.StatusCode,
			ContentType: result.Header.Get("Content-Type"),
			Body:        bytes.Clone(body),
		}, s.idempotencyTTL)
	}
	if ct := result.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(result.StatusCode)
	_, _ = w.Write(body)
	return true
}

func (s *Server) waitForEntry(ctx context.Context, key string, timeout time.Duration) (idempotency.Entry, bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		entry, ok, err := s.idempotency.Lookup(waitCtx, key)
		if err != nil {
			return idempotency.Entry{}, false, err
		}
		if ok {
			return entry, true, nil
		}
		select {
		case <-waitCtx.Done():
			return idempotency.Entry{}, false, waitCtx.Err()
		case <-ticker.C:
		}
	}
}

func writeEntry(w http.ResponseWriter, entry idempotency.Entry) {
	if ct := strings.TrimSpace(entry.ContentType); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	status := entry.StatusCode
	if status <= 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(entry.Body)
}
