package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"receptionist/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	h := NewHealthHandler("Mounir Cutzz", Features{Classifier: "keyword", Calendar: "memory", SessionStore: "memory"})
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	utils.CheckHealth(context.Background(), nil, nil)

	w := do(r, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Mounir Cutzz receptionist")

	w = do(r, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status   string   `json:"status"`
		Features Features `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
	require.Equal(t, "keyword", resp.Features.Classifier)
}
