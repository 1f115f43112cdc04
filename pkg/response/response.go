package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Pagination is flattened into list envelopes.
type Pagination struct {
	Results     int   `json:"results"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	CurrentPage int   `json:"currentPage"`
}

type APIResponse[T any] struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Token     string `json:"token,omitempty"`
	*Pagination
	Data  T           `json:"data,omitempty"`
	Error interface{} `json:"error,omitempty"`
}

func write[T any](ctx *gin.Context, status int, body APIResponse[T]) {
	body.RequestID = ctx.GetString("request_id")
	ctx.JSON(status, body)
}

func Success[T any](ctx *gin.Context, status int, data T) {
	if status == 0 {
		status = http.StatusOK
	}
	write(ctx, status, APIResponse[T]{Status: StatusSuccess, Data: data})
}

// WithToken is used by the register and login responses.
func WithToken[T any](ctx *gin.Context, status int, token string, data T) {
	write(ctx, status, APIResponse[T]{Status: StatusSuccess, Token: token, Data: data})
}

func Paginated[T any](ctx *gin.Context, data T, page Pagination) {
	write(ctx, http.StatusOK, APIResponse[T]{Status: StatusSuccess, Pagination: &page, Data: data})
}

func Message(ctx *gin.Context, status int, message string) {
	write(ctx, status, APIResponse[any]{Status: StatusSuccess, Message: message})
}

// NoContent writes the status line only.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error writes an error envelope and aborts the remaining handlers.
func Error(ctx *gin.Context, status int, message string, err interface{}) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.Abort()
	write(ctx, status, APIResponse[any]{Status: StatusError, Message: message, Error: err})
}
