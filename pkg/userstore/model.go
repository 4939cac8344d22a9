package userstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/user"
)

// UserDao is a data access object that maps directly to the 'users' table in PostgreSQL.
type UserDao struct {
	bun.BaseModel      `bun:"table:users,alias:u"`
	ID                 int64           `bun:"id,pk,autoincrement"`
	Wallet             string          `bun:"wallet,unique,notnull,type:varchar(42)"`
	FID                *int64          `bun:"fid"`
	Username           *string         `bun:"username,type:varchar(255)"`
	PFP                *string         `bun:"pfp,type:text"`
	CardsCount         int             `bun:"cards_count,notnull,default:0"`
	CardsScratched     int             `bun:"cards_scratched,notnull,default:0"`
	TotalWins          int             `bun:"total_wins,notnull,default:0"`
	TotalWinnings      decimal.Decimal `bun:"total_winnings,notnull,type:numeric(38,18),default:0"`
	CurrentLevel       int             `bun:"current_level,notnull,default:1"`
	RevealsToNextLevel int             `bun:"reveals_to_next_level,notnull,default:5"`
	CreatedAt          time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt          time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// toUserDao converts a user.User to UserDao.
func toUserDao(usr *user.User) *UserDao {
	dao := &UserDao{
		Wallet:             usr.Wallet,
		CardsCount:         usr.CardsCount,
		CardsScratched:     usr.CardsScratched,
		TotalWins:          usr.TotalWins,
		TotalWinnings:      usr.TotalWinnings,
		CurrentLevel:       usr.CurrentLevel,
		RevealsToNextLevel: usr.RevealsToNextLevel,
	}

	if usr.FID != 0 {
		dao.FID = &usr.FID
	}
	if usr.Username != "" {
		dao.Username = &usr.Username
	}
	if usr.PFP != "" {
		dao.PFP = &usr.PFP
	}

	return dao
}

// toUser converts a UserDao to user.User.
func toUser(dao *UserDao) *user.User {
	usr := &user.User{
		Wallet:             dao.Wallet,
		CardsCount:         dao.CardsCount,
		CardsScratched:     dao.CardsScratched,
		TotalWins:          dao.TotalWins,
		TotalWinnings:      dao.TotalWinnings,
		CurrentLevel:       dao.CurrentLevel,
		RevealsToNextLevel: dao.RevealsToNextLevel,
		CreatedAt:          dao.CreatedAt,
		UpdatedAt:          dao.UpdatedAt,
	}

	if dao.FID != nil {
		usr.FID = *dao.FID
	}
	if dao.Username != nil {
		usr.Username = *dao.Username
	}
	if dao.PFP != nil {
		usr.PFP = *dao.PFP
	}

	return usr
}
