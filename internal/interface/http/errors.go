package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/internal/application"
	"github.com/joshuaoni/user-management-dashboard/pkg/response"
	"github.com/joshuaoni/user-management-dashboard/pkg/validation"
)

var statusByKind = map[application.Kind]int{
	application.KindValidation:      http.StatusBadRequest,
	application.KindUnauthenticated: http.StatusUnauthorized,
	application.KindForbidden:       http.StatusForbidden,
	application.KindNotFound:        http.StatusNotFound,
	application.KindConflict:        http.StatusConflict,
	application.KindInternal:        http.StatusInternalServerError,
}

// writeError maps service errors onto the error envelope.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var se *application.Error
	if !errors.As(err, &se) {
		logger.WithError(err).WithField("request_id", c.GetString("request_id")).Error("unhandled error")
		response.Error(c, http.StatusInternalServerError, application.MsgServerError, nil)
		return
	}
	status, ok := statusByKind[se.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	msg := se.Message
	if status == http.StatusInternalServerError {
		msg = application.MsgServerError
	}
	response.Error(c, status, msg, nil)
}

// writeBindError reports the first rejected field.
func writeBindError(c *gin.Context, err error) {
	fe := validation.First(err)
	response.Error(c, http.StatusBadRequest, fe.Error(), fe)
}
