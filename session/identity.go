package session

import (
	"strings"

	"crmportal/models"
)

const (
	keyUserID = "user_id"
	keyUser   = "user_data"
	keyFlash  = "flash_message"
)

// Identity is the snapshot of the signed-in user kept in the session.
type Identity struct {
	ID        uint
	Username  string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

func NewIdentity(u *models.User) Identity {
	return Identity{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

func (i Identity) FullName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Username
	}
	return name
}

// HasRole reports whether the user holds any of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

func (i Identity) IsAdmin() bool {
	return i.HasRole(models.RoleAdmin)
}

// SignIn moves the session to a fresh id and stores the user in it.
func SignIn(sess Session, u *models.User) error {
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(keyUserID, u.ID)
	sess.Set(keyUser, NewIdentity(u))
	return nil
}

// Refresh replaces the stored snapshot after the signed-in user's own
// account changed. The session id is kept.
func Refresh(sess Session, u *models.User) {
	sess.Set(keyUser, NewIdentity(u))
}

// SignOut ends the session.
func SignOut(sess Session) error {
	return sess.Destroy()
}

// Identify returns the signed-in user. Both the id and the snapshot must
// be present and agree.
func Identify(sess Session) (Identity, bool) {
	if sess == nil {
		return Identity{}, false
	}
	id, ok := sess.Get(keyUserID).(uint)
	if !ok || id == 0 {
		return Identity{}, false
	}
	ident, ok := sess.Get(keyUser).(Identity)
	if !ok || ident.ID != id {
		return Identity{}, false
	}
	return ident, true
}
