package http

import (
	"github.com/gin-gonic/gin"

	"github.com/roamgrid/roamgrid/internal/domain/auth"
)

const identityKey = "auth_identity"

func setIdentity(c *gin.Context, ident auth.Identity) {
	c.Set(identityKey, ident)
}

func getIdentity(c *gin.Context) (auth.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	ident, ok := value.(auth.Identity)
	return ident, ok
}
