package cardstore

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/LilFatFrank/scratch-off/pkg/card"
)

// CardDao is a data access object that maps directly to the 'cards' table in PostgreSQL.
type CardDao struct {
	bun.BaseModel `bun:"table:cards,alias:c"`
	ID            int64           `bun:"id,pk,autoincrement"`
	UserWallet    string          `bun:"user_wallet,notnull,type:varchar(42)"`
	CardNo        int             `bun:"card_no,notnull"`
	PaymentTx     string          `bun:"payment_tx,notnull,type:varchar(255)"`
	PrizeAmount   decimal.Decimal `bun:"prize_amount,notnull,type:numeric(38,18)"`
	PrizeContract *string         `bun:"prize_contract,type:varchar(42)"`
	Cells         []card.Cell     `bun:"cells,notnull,type:jsonb"`
	Scratched     bool            `bun:"scratched,notnull,default:false"`
	Claimed       bool            `bun:"claimed,notnull,default:false"`
	PayoutTx      *string         `bun:"payout_tx,type:varchar(255)"`
	SharedTo      *string         `bun:"shared_to,type:varchar(42)"`
	CreatedAt     time.Time       `bun:"created_at,nullzero,default:current_timestamp"`
	ScratchedAt   *time.Time      `bun:"scratched_at"`
}

// toCardDao converts a card.Card to CardDao.
func toCardDao(c *card.Card) *CardDao {
	dao := &CardDao{
		ID:          c.ID,
		UserWallet:  c.UserWallet,
		CardNo:      c.CardNo,
		PaymentTx:   c.PaymentTx,
		PrizeAmount: c.PrizeAmount,
		Cells:       c.Cells,
		Scratched:   c.Scratched,
		Claimed:     c.Claimed,
		ScratchedAt: c.ScratchedAt,
	}

	if c.PrizeContract != "" {
		dao.PrizeContract = &c.PrizeContract
	}
	if c.PayoutTx != "" {
		dao.PayoutTx = &c.PayoutTx
	}
	if c.SharedTo != "" {
		dao.SharedTo = &c.SharedTo
	}

	return dao
}

// toCard converts a CardDao to card.Card.
func toCard(dao *CardDao) *card.Card {
	c := &card.Card{
		ID:          dao.ID,
		UserWallet:  dao.UserWallet,
		CardNo:      dao.CardNo,
		PaymentTx:   dao.PaymentTx,
		PrizeAmount: dao.PrizeAmount,
		Cells:       dao.Cells,
		Scratched:   dao.Scratched,
		Claimed:     dao.Claimed,
		CreatedAt:   dao.CreatedAt,
		ScratchedAt: dao.ScratchedAt,
	}

	if dao.PrizeContract != nil {
		c.PrizeContract = *dao.PrizeContract
	}
	if dao.PayoutTx != nil {
		c.PayoutTx = *dao.PayoutTx
	}
	if dao.SharedTo != nil {
		c.SharedTo = *dao.SharedTo
	}

	return c
}
