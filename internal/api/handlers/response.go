package handlers

import "time"

// Response is the envelope returned by the health endpoints.
//
//   - Status is "healthy" or "unhealthy"
//   - Timestamp is the response time in UTC
//   - Data carries the probe payload (optional)
//   - Error explains an unhealthy status (optional)
type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
}

func healthyResponse(data any) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func unhealthyResponse(errMsg string) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}
