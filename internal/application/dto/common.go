package dto

// ErrorResponse cuerpo de error HTTP.
// Details lleva el id ofensor y el estado actual cuando el error lo permite.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}
