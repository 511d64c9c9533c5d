// Package service holds the forum's domain operations. Services validate
// input and ownership, commit through the store and, for comments and votes,
// hand a Change Event to the Publisher once the commit has succeeded.
package service

import (
	"time"

	"github.com/devaloi/agora/internal/domain"
)

// Publisher receives Change Events after a successful commit. Publish must
// not block.
type Publisher interface {
	Publish(evt domain.Event)
}

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func canModerate(actor domain.User, ownerID string) bool {
	return actor.ID == ownerID || actor.IsAdmin()
}
