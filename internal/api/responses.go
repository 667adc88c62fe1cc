package api

// Envelope is the uniform response shape: {"ok":true,"data":...} on
// success, {"ok":false,"error":{...}} on failure.
type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorBody  `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string      `json:"code" example:"capacity_full"`
	Message string      `json:"message" example:"class is full"`
	Details interface{} `json:"details,omitempty"`
}

func OK(data interface{}) Envelope {
	return Envelope{OK: true, Data: data}
}

func Fail(code, message string, details interface{}) Envelope {
	return Envelope{OK: false, Error: &ErrorBody{Code: code, Message: message, Details: details}}
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
