// Package user holds the player domain model.
package user

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LilFatFrank/scratch-off/pkg/level"
)

// User represents the domain model for a player, keyed by wallet address.
type User struct {
	Wallet             string
	FID                int64
	Username           string
	PFP                string
	CardsCount         int
	CardsScratched     int
	TotalWins          int
	TotalWinnings      decimal.Decimal
	CurrentLevel       int
	RevealsToNextLevel int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// New creates a fresh User at level 1 with the full reveal budget.
func New(wallet string) *User {
	return &User{
		Wallet:             wallet,
		CardsCount:         0,
		CardsScratched:     0,
		TotalWinnings:      decimal.Zero,
		CurrentLevel:       1,
		RevealsToNextLevel: level.Requirement(1),
	}
}

// CheckOrCreateRequest identifies a player by wallet, optionally carrying
// their social profile so new rows come pre-populated.
type CheckOrCreateRequest struct {
	Wallet   string `json:"wallet" validate:"required"`
	FID      int64  `json:"fid,omitempty"`
	Username string `json:"username,omitempty"`
	PFP      string `json:"pfp,omitempty"`
}

// LoginRequest proves wallet ownership with an EIP-191 signature.
type LoginRequest struct {
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// LoginResponse carries the session token bound to the recovered wallet.
type LoginResponse struct {
	Token  string `json:"token"`
	Wallet string `json:"wallet"`
}

// Response is the wire form of a player.
type Response struct {
	Wallet             string          `json:"wallet"`
	FID                int64           `json:"fid,omitempty"`
	Username           string          `json:"username,omitempty"`
	PFP                string          `json:"pfp,omitempty"`
	CardsCount         int             `json:"cards_count"`
	CardsScratched     int             `json:"cards_scratched"`
	TotalWins          int             `json:"total_wins"`
	TotalWinnings      decimal.Decimal `json:"total_winnings"`
	CurrentLevel       int             `json:"current_level"`
	RevealsToNextLevel int             `json:"reveals_to_next_level"`
	Created            bool            `json:"created,omitempty"`
}

// ToResponse maps a domain user to its wire form.
func ToResponse(u *User, created bool) Response {
	return Response{
		Wallet:             u.Wallet,
		FID:                u.FID,
		Username:           u.Username,
		PFP:                u.PFP,
		CardsCount:         u.CardsCount,
		CardsScratched:     u.CardsScratched,
		TotalWins:          u.TotalWins,
		TotalWinnings:      u.TotalWinnings,
		CurrentLevel:       u.CurrentLevel,
		RevealsToNextLevel: u.RevealsToNextLevel,
		Created:            created,
	}
}
