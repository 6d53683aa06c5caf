package gateway

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/spec-kit/tour-booking/pkg/util"
)

type errorBody struct {
	Message string         `json:"message"`
	Errors  map[string]any `json:"errors"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func parseErrorBody(body []byte) (string, map[string]any) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", nil
	}
	if eb.Message != "" {
		return eb.Message, eb.Errors
	}
	if eb.Error != nil {
		return eb.Error.Message, eb.Error.Details
	}
	return "", eb.Errors
}

// classify maps a received HTTP response to the client error taxonomy.
// credentials marks login/register, where a 401 means wrong credentials
// rather than an invalid session.
func classify(status int, body []byte, credentials bool) error {
	if status >= 200 && status < 300 {
		return nil
	}
	message, details := parseErrorBody(body)

	switch {
	case status == http.StatusUnauthorized && credentials:
		if message == "" {
			message = apperrors.MsgCredentials
		}
		return apperrors.NewValidationError(status, message, nil)
	case status == http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError("")
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return apperrors.NewValidationError(status, message, details)
	case status >= http.StatusInternalServerError:
		return apperrors.NewServerError(status)
	default:
		return apperrors.NewRejectedError(status, message)
	}
}
