package worker

import (
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"education-web/internal/config"
)

func RegisterHandlers(mux *asynq.ServeMux, db *sqlx.DB, redis *redis.Client, cfg *config.Config) {
	// Register import commit task handler
	commitHandler := NewCommitTaskHandler(db, redis, cfg)
	mux.HandleFunc(TypeImportCommit, commitHandler.Handle)
}
