package handler

import (
	"net/http"

	"github.com/cashday-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// Error codes carried in ErrorInfo.Code
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeBusinessNotFound = "BUSINESS_NOT_FOUND"
	CodeSummaryNotFound  = "SUMMARY_NOT_FOUND"
	CodeTxNotFound       = "TRANSACTION_NOT_FOUND"
	CodeNotDeletable     = "NOT_DELETABLE"
	CodeRunInProgress    = "RUN_IN_PROGRESS"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// Response is the envelope every endpoint answers with
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	BusinessID    string      `json:"business_id,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// envelope stamps the route's business and the request correlation id
func envelope(c *gin.Context) *Response {
	return &Response{
		BusinessID:    c.Param("id"),
		CorrelationID: middleware.GetCorrelationID(c),
	}
}

// RespondWithData sends data inside the envelope
func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	response := envelope(c)
	response.Data = data
	c.JSON(statusCode, response)
}

// RespondWithError sends an error inside the envelope
func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	response := envelope(c)
	response.Error = &ErrorInfo{Code: code, Message: message}
	c.JSON(statusCode, response)
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

// RespondAccepted is used for ledger writes; summaries catch up asynchronously
func RespondAccepted(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusAccepted, data)
}

func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeBadRequest, message)
}

func RespondNotFound(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusNotFound, code, message)
}

func RespondConflict(c *gin.Context, code, message string) {
	RespondWithError(c, http.StatusConflict, code, message)
}

func RespondInternalError(c *gin.Context) {
	RespondWithError(c, http.StatusInternalServerError, CodeInternal, "An internal server error occurred")
}
