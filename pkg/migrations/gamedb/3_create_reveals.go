package gamedb

import (
	"context"
	"log"

	mghelper "github.com/LilFatFrank/scratch-off/pkg/pgutil/migrations"
	"github.com/LilFatFrank/scratch-off/pkg/revealstore"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating reveals table...")
		if err := mghelper.CreateSchema(ctx, db, &revealstore.RevealDao{}); err != nil {
			return err
		}
		return mghelper.CreateModelIndexes(ctx, db, &revealstore.RevealDao{}, "wallet", "created_at")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping reveals table...")
		return mghelper.DropTables(ctx, db, &revealstore.RevealDao{})
	})
}
