// Package pg connects to the PostgreSQL database backing the durable
// pending operation store.
//
//	cfg := config.MustLoad[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := pendingop.NewPostgresStore(pool)
package pg
