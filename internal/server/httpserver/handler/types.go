package handler

import "time"

// Response is the standard API response envelope.
// All JSON responses use this format (except /metrics which uses Prometheus format).
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// Success envelope values.
const (
	CodeOK    = "OK"
	MessageOK = "Success"
)

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      CodeOK,
		Message:   MessageOK,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SubmitAttendanceRequest is the request body for POST /attendance.
type SubmitAttendanceRequest struct {
	EmployeeID *uint64 `json:"employee_id"`
}

// AddEmployeeRequest is the request body for POST /employees.
type AddEmployeeRequest struct {
	EmployeeID *uint64 `json:"employee_id"`
	Name       string  `json:"name"`
	Role       string  `json:"role"`
}

// UpdateEmployeeRequest is the request body for PUT /employees/{id}.
type UpdateEmployeeRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// HealthResponse is the response body for GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
