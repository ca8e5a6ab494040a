package server

import (
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/cotiza/internal/auth/domain"
	orderdomain "github.com/smallbiznis/cotiza/internal/order/domain"
	quotedomain "github.com/smallbiznis/cotiza/internal/quote/domain"
)

const contextUserKey = "current_user"

// AuthRequired authenticates the session cookie and stores the account on
// the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, _, err := s.authSvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// authorize gates a route on the casbin policy for the actor's role.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		actor := "user:" + user.ID.String()
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *authdomain.User {
	value, ok := c.Get(contextUserKey)
	if !ok {
		return nil
	}
	user, ok := value.(*authdomain.User)
	if !ok {
		return nil
	}
	return user
}

func quoteActor(user *authdomain.User) quotedomain.Actor {
	return quotedomain.Actor{ID: user.ID, Role: user.Role}
}

func orderActor(user *authdomain.User) orderdomain.Actor {
	return orderdomain.Actor{ID: user.ID, Role: user.Role}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return 0, ErrInvalidRequest
	}
	return id, nil
}

func parseOptionalBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
