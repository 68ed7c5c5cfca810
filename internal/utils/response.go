package utils

import "time"

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// GateResponse is the wire shape of a scan or sale attempt. Status is
// "ok" when the transition was applied, "rejected" when the state
// machine refused it; Reason carries the rejection code.
type GateResponse struct {
	Status  string      `json:"status"`
	Ticket  interface{} `json:"ticket,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
}

func GateOK(ticket interface{}) GateResponse {
	return GateResponse{Status: "ok", Ticket: ticket}
}

func GateRejected(reason, message string) GateResponse {
	return GateResponse{Status: "rejected", Reason: reason, Message: message}
}
