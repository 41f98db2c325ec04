// Package redis connects to the Redis instance backing the durable
// pending operation store.
//
//	cfg := config.MustLoad[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := pendingop.NewRedisStore(client)
package redis
