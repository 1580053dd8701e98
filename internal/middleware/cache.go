package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/liveshop-app/liveshop-server/internal/config"
)

// captureWriter tees the response body and status while forwarding to the
// client, capped at limit bytes.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// cacheKey hashes the concrete request path, not the route template, so
// /v1/channels/7/products and /v1/channels/8/products get separate entries.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
	r := c.Request()
	tail := strings.Join([]string{"path", r.URL.Path, "q", r.URL.RawQuery}, ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	header = make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &header); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, header, bs[8+hlen:], true
}

// NewRedisCache caches successful responses of the configured methods in
// Redis, storing headers alongside the body so clients see identical
// formatting on a hit. Entries are shared across callers, so only wire it
// to routes whose response does not depend on who is asking; authentication
// still runs first when the route sits behind JWT middleware.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			key := cacheKey(cfg, c)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					for k, vals := range hdr {
						if strings.EqualFold(k, "Content-Length") {
							continue
						}
						for _, v := range vals {
							c.Response().Header().Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: int64(cfg.MaxBodyBytes)}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if cw.status == http.StatusOK && cw.size <= int64(cfg.MaxBodyBytes) {
				hdr := make(http.Header, len(c.Response().Header()))
				for k, vals := range c.Response().Header() {
					hdr[k] = append([]string(nil), vals...)
				}
				if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
					_ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
				}
			}
			return nil
		}
	}
}
