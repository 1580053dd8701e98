package handler // handler defines the HTTP handlers for the API

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// dbTimeout bounds every database round trip made from a handler.
const dbTimeout = 5 * time.Second

// getUserID extracts the user_id placed in context by the JWT middleware
// and converts it to uint64. JWT numeric claims decode as float64; older
// tokens may carry strings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// reqCtx derives a bounded context from the request.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}
