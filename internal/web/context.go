package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/web/middleware"
	"github.com/google/uuid"
)

// businessHeader names the business the dashboard is acting for.
const businessHeader = "X-Business-ID"

// requestContext carries the client address into service logs.
func requestContext(r *http.Request) context.Context {
	return core.ContextWithClientIP(r.Context(), middleware.ClientIP(r))
}

func businessID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(businessHeader))
	if raw == "" {
		return uuid.Nil, errMissingBusiness
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errMissingBusiness
	}
	return id, nil
}
