package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/propdesk/portal/internal/mykafka"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorResponse(c echo.Context, code int, err error) error {
	return c.JSON(code, Response{
		Status:  "error",
		Message: err.Error(),
	})
}

func CreateCookie(name string, value string, path string, expTime time.Time) *http.Cookie {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expTime,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}

	return cookie
}

// GetIdentity extracts the authenticated user's id and role from the access
// token cookie. Access-control code takes these as explicit parameters, so
// this is the only place the identity leaves the HTTP layer.
func GetIdentity(c echo.Context, jwtSecret []byte) (uint, string, error) {
	cookie, err := c.Cookie("accessToken")
	if err != nil {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "missing auth cookie")
	}
	if cookie.Value == "" {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "empty token")
	}

	token, err := jwt.Parse(cookie.Value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token: "+err.Error())
	}
	if !token.Valid {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	subRaw, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", echo.NewHTTPError(http.StatusBadRequest, "invalid subject claim")
	}
	role, _ := claims["role"].(string)

	return uint(subRaw), role, nil
}

// publish fires a domain event, logging instead of failing the request when
// the broker is unreachable. A nil producer is a no-op so handlers stay
// constructible without kafka in tests.
func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]any) {
	if producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
