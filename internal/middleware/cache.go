// Package middleware holds the HTTP middleware chain: response
// caching, per-client rate limiting, request logging and CORS.
package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type cachedResponse struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// sha1Hex keeps Redis keys short regardless of path and query length.
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// cacheKey namespaces keys by resource so writes can purge a whole
// prefix. Only GET responses are cacheable.
func cacheKey(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	path := r.URL.Path
	suffix := sha1Hex(r.Method + "|" + path + "|" + r.URL.RawQuery)

	switch {
	case strings.HasPrefix(path, "/workshops"):
		return "cache:workshops:" + suffix
	case strings.HasPrefix(path, "/attendees"):
		return "cache:attendees:" + suffix
	default:
		return "cache:generic:" + suffix
	}
}

type bufferedWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (w *bufferedWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// ResponseCache serves GET responses from Redis when a fresh copy
// exists and stores 2xx responses on a miss. The X-Cache header
// reports HIT or MISS.
func ResponseCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cacheKey(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			if b, err := rdb.Get(r.Context(), key).Bytes(); err == nil && len(b) > 0 {
				var hit cachedResponse
				if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
					for k, vals := range hit.Header {
						for _, v := range vals {
							w.Header().Add(k, v)
						}
					}
					w.Header().Set("X-Cache", "HIT")
					w.WriteHeader(hit.Status)
					_, _ = w.Write(hit.Body)
					return
				}
			}

			w.Header().Set("X-Cache", "MISS")
			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)

			if bw.status >= 200 && bw.status < 300 {
				item := cachedResponse{
					Status: bw.status,
					Header: cacheableHeaders(w.Header()),
					Body:   bw.buf.Bytes(),
				}
				var out bytes.Buffer
				if err := gob.NewEncoder(&out).Encode(item); err == nil {
					if err := rdb.Set(r.Context(), key, out.Bytes(), ttl).Err(); err != nil {
						log.Warn("cache store failed", zap.String("key", key), zap.Error(err))
					}
				}
			}
		})
	}
}

// cacheableHeaders copies the response headers, dropping the cache
// marker itself so replays can set their own.
func cacheableHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if k == "X-Cache" {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// Invalidator purges cached responses after a write so readers never
// see stale listings.
type Invalidator struct {
	rdb *redis.Client
}

// NewInvalidator constructs an Invalidator.
func NewInvalidator(rdb *redis.Client) *Invalidator {
	return &Invalidator{rdb: rdb}
}

func (ci *Invalidator) purgePrefix(ctx context.Context, prefix string) {
	iter := ci.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		_ = ci.rdb.Del(ctx, iter.Val()).Err()
	}
}

// PurgeWorkshops drops every cached workshop response.
func (ci *Invalidator) PurgeWorkshops(ctx context.Context) {
	ci.purgePrefix(ctx, "cache:workshops:")
}

// PurgeAttendees drops every cached attendee response.
func (ci *Invalidator) PurgeAttendees(ctx context.Context) {
	ci.purgePrefix(ctx, "cache:attendees:")
}
