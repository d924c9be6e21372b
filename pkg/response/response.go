package response

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform envelope for all JSON responses.
type Response struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request could not be processed. Please check your input.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

// ForbiddenResponse is deliberately generic: it never discloses why
// access was denied.
var ForbiddenResponse = Response{
	Status:  StatusError,
	Error:   "Forbidden",
	Message: "The requested resource is not accessible.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

// SuccessResponse builds a success envelope. At most one data payload is
// used; extra values are ignored.
func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 && data[0] != nil {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse builds an error envelope carrying per-field
// validation issues.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request contains invalid data.",
	}

	for _, e := range getValidationErrors(err) {
		resp.Details = append(resp.Details, e)
	}

	return resp
}
