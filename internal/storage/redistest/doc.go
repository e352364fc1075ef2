// Package redistest runs an in-process server speaking the subset of the
// Redis protocol that storage.RedisStore uses, backed by the memory store.
//
// It lets the redis backend run the kvtest kit without an external Redis:
//
//	srv := redistest.Start(t)
//	store, err := storage.NewRedisStore(storage.RedisConfig{Addr: srv.Addr()}, nil)
//
// Supported commands: PING, GET, SET [NX], SETNX, DEL, EXISTS, INCR,
// SCAN [MATCH] [COUNT], DBSIZE, FLUSHDB and QUIT.
package redistest
