// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity represents the authenticated requester's identity.
// This interface abstracts identity extraction from the web framework,
// allowing handlers to access requester information without depending on Gin.
type Identity interface {
	// RequesterID returns the authenticated requester's account ID.
	RequesterID() uuid.UUID
	// IsAuthenticated returns true if the requester is authenticated.
	IsAuthenticated() bool
}

// identity is the concrete implementation of Identity.
type identity struct {
	requesterID   uuid.UUID
	authenticated bool
}

func (i *identity) RequesterID() uuid.UUID {
	return i.requesterID
}

func (i *identity) IsAuthenticated() bool {
	return i.authenticated
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if requester info is not present.
func GetIdentity(c *gin.Context) Identity {
	requesterID, ok := c.Get(ContextRequesterIDKey)
	if !ok {
		return &identity{authenticated: false}
	}

	rid, ok := requesterID.(uuid.UUID)
	if !ok {
		return &identity{authenticated: false}
	}

	return &identity{
		requesterID:   rid,
		authenticated: true,
	}
}

// MustGetIdentity extracts the Identity from a Gin context.
// If the requester is not authenticated, it aborts with 401 Unauthorized and returns nil.
func MustGetIdentity(c *gin.Context) Identity {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil
	}
	return id
}
