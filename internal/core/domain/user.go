package domain

import "time"

// User models an account holder. RefreshToken holds the single live refresh
// token; an empty value means no session is active.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	RefreshToken     string     `json:"-"`
	ResetToken       string     `json:"-"`
	ResetTokenExpiry *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Profile is the public view of a User: credentials and tokens stripped.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile returns the user's public view.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// ResetTokenValid reports whether token matches the stored reset token and the
// stored expiry is still in the future at now.
func (u *User) ResetTokenValid(token string, now time.Time) bool {
	if u.ResetToken == "" || u.ResetToken != token {
		return false
	}
	return u.ResetTokenExpiry != nil && now.Before(*u.ResetTokenExpiry)
}
