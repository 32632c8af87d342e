package users

import "time"

type User struct {
	ID           string
	Email        string
	Salt         []byte
	PasswordHash []byte
	CreatedAt    time.Time
}
