package service

import "github.com/noah-isme/sport-sections-api/internal/models"

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID        uint
	Email     string
	Moderator bool
}

// ActorFromUser builds an actor from a resolved account.
func ActorFromUser(user models.User) Actor {
	return Actor{
		ID:        user.ID,
		Email:     user.Email,
		Moderator: user.IsModerator(),
	}
}

// Role returns the label recorded in the activity log.
func (a Actor) Role() string {
	if a.Moderator {
		return models.UserRoleModerator
	}
	return models.UserRoleRegular
}
