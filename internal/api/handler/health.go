package handler

import (
	"net/http"
)

type HealthResponse struct {
	Status string `json:"status"`
}

// Health reports process liveness. Dependency health is visible through
// the metrics endpoint instead.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}
