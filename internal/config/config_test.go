package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/pathwise/engine/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.ConsumerWorkers, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 500_000)
			convey.So(cfg.RecommendationCacheTTLSeconds, convey.ShouldEqual, 300)
			convey.So(cfg.RedisAddr, convey.ShouldEqual, "")
			convey.So(cfg.DefaultLimit, convey.ShouldEqual, 10)
			convey.So(cfg.MaxLimit, convey.ShouldEqual, 50)
			convey.So(cfg.ShardCount, convey.ShouldEqual, 16)
			convey.So(cfg.EpsilonDefault, convey.ShouldEqual, 0.2)
		})
	})
}
