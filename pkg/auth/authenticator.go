package auth

import (
	"log/slog"
	"slices"
)

type authenticator struct {
	authorizedUserIDs []int64
}

// NewAuthenticator with an empty list lets every user through.
func NewAuthenticator(authorizedUserIDs []int64) *authenticator {
	slog.Info("telegram authorized user IDs", "user_ids", authorizedUserIDs)

	return &authenticator{
		authorizedUserIDs: authorizedUserIDs,
	}
}

func (a *authenticator) IsAuthorized(userID int64) bool {
	if len(a.authorizedUserIDs) == 0 {
		return true
	}
	return slices.Contains(a.authorizedUserIDs, userID)
}
