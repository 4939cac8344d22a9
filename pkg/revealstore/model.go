package revealstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/reveal"
)

// RevealDao is a data access object that maps directly to the 'reveals' table in PostgreSQL.
type RevealDao struct {
	bun.BaseModel `bun:"table:reveals,alias:r"`
	ID            string          `bun:"id,pk,type:uuid"`
	CardID        int64           `bun:"card_id,notnull"`
	Wallet        string          `bun:"wallet,notnull,type:varchar(42)"`
	Username      *string         `bun:"username,type:varchar(255)"`
	PFP           *string         `bun:"pfp,type:text"`
	Amount        decimal.Decimal `bun:"amount,notnull,type:numeric(38,18)"`
	Asset         *string         `bun:"asset,type:varchar(42)"`
	PaymentTx     *string         `bun:"payment_tx,type:varchar(66)"`
	PayoutTx      *string         `bun:"payout_tx,type:varchar(66)"`
	Won           bool            `bun:"won,notnull,default:false"`
	SharedTo      *string         `bun:"shared_to,type:varchar(42)"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt     time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// StatsDao maps to the single-row 'stats' table in PostgreSQL.
type StatsDao struct {
	bun.BaseModel  `bun:"table:stats,alias:s"`
	ID             int             `bun:"id,pk"`
	TotalCards     int64           `bun:"total_cards,notnull,default:0"`
	TotalScratched int64           `bun:"total_scratched,notnull,default:0"`
	TotalWinnings  decimal.Decimal `bun:"total_winnings,notnull,type:numeric(38,18),default:0"`
	TotalPaidOut   decimal.Decimal `bun:"total_paid_out,notnull,type:numeric(38,18),default:0"`
	UpdatedAt      time.Time       `bun:"updated_at,nullzero,default:current_timestamp"`
}

// toRevealDao converts a reveal.Reveal to RevealDao.
func toRevealDao(r *reveal.Reveal) *RevealDao {
	dao := &RevealDao{
		ID:     r.ID,
		CardID: r.CardID,
		Wallet: r.Wallet,
		Amount: r.Amount,
		Won:    r.Won,
	}

	if r.Username != "" {
		dao.Username = &r.Username
	}
	if r.PFP != "" {
		dao.PFP = &r.PFP
	}
	if r.Asset != "" {
		dao.Asset = &r.Asset
	}
	if r.PaymentTx != "" {
		dao.PaymentTx = &r.PaymentTx
	}
	if r.PayoutTx != "" {
		dao.PayoutTx = &r.PayoutTx
	}
	if r.SharedTo != "" {
		dao.SharedTo = &r.SharedTo
	}

	return dao
}

// toReveal converts a RevealDao to reveal.Reveal.
func toReveal(dao *RevealDao) *reveal.Reveal {
	r := &reveal.Reveal{
		ID:        dao.ID,
		CardID:    dao.CardID,
		Wallet:    dao.Wallet,
		Amount:    dao.Amount,
		Won:       dao.Won,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}

	if dao.Username != nil {
		r.Username = *dao.Username
	}
	if dao.PFP != nil {
		r.PFP = *dao.PFP
	}
	if dao.Asset != nil {
		r.Asset = *dao.Asset
	}
	if dao.PaymentTx != nil {
		r.PaymentTx = *dao.PaymentTx
	}
	if dao.PayoutTx != nil {
		r.PayoutTx = *dao.PayoutTx
	}
	if dao.SharedTo != nil {
		r.SharedTo = *dao.SharedTo
	}

	return r
}
