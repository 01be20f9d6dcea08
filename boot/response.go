package boot

import "net/http"

// Response is the status returned by a pipeline entry point.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// OKResponse is returned when a unit completes its happy path.
func OKResponse() *Response {
	return &Response{StatusCode: http.StatusOK, Body: "OK"}
}

// ErrorResponse is returned when a unit could not do its work.
func ErrorResponse() *Response {
	return &Response{StatusCode: http.StatusBadRequest, Body: "ERROR"}
}
