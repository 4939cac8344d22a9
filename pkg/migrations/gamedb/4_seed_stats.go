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
		log.Println("creating and seeding stats table...")
		if err := mghelper.CreateSchema(ctx, db, &revealstore.StatsDao{}); err != nil {
			return err
		}
		// Single aggregate row, idempotent on re-run
		_, err := db.NewInsert().
			Model(&revealstore.StatsDao{ID: 1}).
			On("CONFLICT (id) DO NOTHING").
			Exec(ctx)
		return err
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping stats table...")
		return mghelper.DropTables(ctx, db, &revealstore.StatsDao{})
	})
}
