package main

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dimerbwimba/independent-journalism-platform-sub000/config"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/engagement"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/models"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/ratelimit"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/routes"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/store"
	"github.com/dimerbwimba/independent-journalism-platform-sub000/utils"
)

func main() {
	cfg := config.Load()

	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	var st store.Store
	switch cfg.StoreDriver {
	case "memory":
		// Dependency-free mode for local development and demos.
		st = store.NewMemoryStore()
	default:
		db := config.InitDatabase(&models.Comment{}, &models.Vote{})
		st = store.NewGormStore(db)
	}

	window := time.Duration(cfg.CommentCooldownSec) * time.Second
	clock := clockwork.NewRealClock()
	var limiter ratelimit.Limiter
	if rdb := utils.GetRedis(); rdb != nil {
		// Shared cooldown window across instances.
		limiter = ratelimit.NewRedisLimiter(rdb, window, clock)
	} else {
		limiter = ratelimit.NewMemoryLimiter(window, clock)
	}

	engine := engagement.New(st, limiter, clock)
	r := routes.SetupRouter(engine)

	utils.Sugar.Infof("starting engagement service on port %s (store=%s)", cfg.AppPort, cfg.StoreDriver)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
