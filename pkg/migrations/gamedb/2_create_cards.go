package gamedb

import (
	"context"
	"log"

	"github.com/LilFatFrank/scratch-off/pkg/cardstore"
	mghelper "github.com/LilFatFrank/scratch-off/pkg/pgutil/migrations"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating cards table...")
		if err := mghelper.CreateSchema(ctx, db, &cardstore.CardDao{}); err != nil {
			return err
		}
		if err := mghelper.CreateModelIndexes(ctx, db, &cardstore.CardDao{}, "user_wallet", "scratched"); err != nil {
			return err
		}
		// One card_no per owner
		_, err := db.ExecContext(ctx,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_cards_user_wallet_card_no ON cards (user_wallet, card_no)`)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping cards table...")
		return mghelper.DropTables(ctx, db, &cardstore.CardDao{})
	})
}
