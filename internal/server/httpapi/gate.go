package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/luminary-catalog/luminary/internal/common"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
)

const identityKey = "identity"

// RequireAuth rejects requests without a valid bearer token with 401 and
// aborts the chain. On success the identity is attached to both the request
// context and the gin context. It never touches persistent state.
func RequireAuth(verifier auth.TokenVerifier, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, err := auth.ParseBearerValues(c.Request.Header.Values(common.AuthorizationHeaderName))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: auth.RejectionMessage(err)})
			return
		}

		identity, err := verifier.Verify(token)
		if err != nil {
			logger.Debug(ctx, "token rejected", "expired", errors.Is(err, common.ErrTokenExpired))
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: auth.MsgInvalidToken})
			return
		}

		c.Set(identityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, identity))

		c.Next()
	}
}

// identityFrom returns the identity attached by RequireAuth.
func identityFrom(c *gin.Context) (*auth.Identity, bool) {
	return auth.IdentityFromContext(c.Request.Context())
}
