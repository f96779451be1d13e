package models

import "time"

// Session is the in-memory authentication state. A present Token means the
// user is authenticated.
type Session struct {
	Token  string
	UserID string
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Credential is one named secret stored by the postgres vault
type Credential struct {
	ID        uint   `gorm:"primaryKey"`
	Profile   string `gorm:"size:64;uniqueIndex:idx_profile_name"`
	Name      string `gorm:"size:64;uniqueIndex:idx_profile_name"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}
