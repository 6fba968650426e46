package respond

import (
	"github.com/gin-gonic/gin"

	"filevault/internal/shared/telemetry"
)

// ErrorBody is the machine-readable part of a failed response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse is the envelope every failed request returns: {"error": {...}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// contextLogKeys maps request-scoped values set by middleware and handlers to log field names.
var contextLogKeys = [...]struct{ ctx, field string }{
	{"requestId", "request_id"},
	{"subject", "subject"},
	{"objectId", "object_id"},
}

// Error logs the failure, writes the error envelope and aborts the handler chain.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	telemetry.Error("http.error", errorFields(c, status, code, message))
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message, Details: details}})
}

func errorFields(c *gin.Context, status int, code, message string) map[string]any {
	fields := map[string]any{
		"status":  status,
		"code":    code,
		"message": message,
	}
	if c.Request != nil {
		fields["method"] = c.Request.Method
		fields["path"] = c.Request.URL.Path
	}
	for _, k := range contextLogKeys {
		if v := c.GetString(k.ctx); v != "" {
			fields[k.field] = v
		}
	}
	return fields
}
