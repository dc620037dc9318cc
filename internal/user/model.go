package user

import (
	"time"

	"github.com/congo-pay/gemwallet/internal/wallet"
)

// MinIDLength is the shortest user id accepted on the API surface.
const MinIDLength = 10

// User owns exactly one wallet.
type User struct {
	ID        string
	Firstname string
	Lastname  string
	PINHash   []byte
	CreatedAt time.Time
}

// Profile pairs a user with its wallet.
type Profile struct {
	User   User
	Wallet wallet.Wallet
}

// Registration is the input of Service.Register.
type Registration struct {
	Firstname string
	Lastname  string
	PIN       string
}
