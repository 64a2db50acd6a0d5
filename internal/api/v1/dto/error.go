package dto

// ErrorResponseDTO is the stable error envelope for all failure responses
type ErrorResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MessageResponseDTO acknowledges an operation with no payload
type MessageResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
