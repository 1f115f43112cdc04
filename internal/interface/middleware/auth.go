package middleware

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/joshuaoni/user-management-dashboard/internal/domain/entity"
	"github.com/joshuaoni/user-management-dashboard/internal/domain/repository"
	"github.com/joshuaoni/user-management-dashboard/pkg/helpers"
	"github.com/joshuaoni/user-management-dashboard/pkg/response"
)

const (
	MsgNotAuthorized = "Not authorized to access this route"
	MsgAccountGone   = "User no longer exists"
	MsgForbidden     = "You do not have permission to perform this action"
)

// authRejections counts rejected requests by reason under /debug/vars.
var authRejections = expvar.NewMap("auth_rejections")

// AccountResolver loads the account a token refers to.
type AccountResolver interface {
	GetByID(ctx context.Context, id string) (*entity.Account, error)
}

// tokenFrom reads the bearer header first, then the token cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token)
		}
	}
	if token, err := c.Cookie(helpers.TokenCookie); err == nil && token != "" {
		return token
	}
	return ""
}

// Authenticate verifies the request token and attaches the resolved account.
func Authenticate(jwt *helpers.JWTManager, accounts AccountResolver, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.WithFields(logrus.Fields{"request_id": c.GetString("request_id"), "path": c.FullPath()})

		token := tokenFrom(c)
		if token == "" {
			authRejections.Add("missing_token", 1)
			response.Error(c, http.StatusUnauthorized, MsgNotAuthorized, nil)
			return
		}
		claims, err := jwt.Parse(token)
		if err != nil {
			authRejections.Add("invalid_token", 1)
			log.WithError(err).Debug("token rejected")
			response.Error(c, http.StatusUnauthorized, MsgNotAuthorized, nil)
			return
		}

		account, err := accounts.GetByID(c.Request.Context(), claims.AccountID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			authRejections.Add("account_gone", 1)
			log.WithField("account_id", claims.AccountID).Info("token for missing account")
			response.Error(c, http.StatusUnauthorized, MsgAccountGone, nil)
			return
		case err != nil:
			log.WithError(err).WithField("account_id", claims.AccountID).Error("resolve account failed")
			response.Error(c, http.StatusInternalServerError, "Server error", nil)
			return
		}

		SetIdentity(c, account)
		c.Next()
	}
}
