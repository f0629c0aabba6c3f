package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/capperchat/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3001")
			convey.So(cfg.MaxMessageLength, convey.ShouldEqual, 500)
			convey.So(cfg.HistoryTurns, convey.ShouldEqual, 4)
			convey.So(cfg.ClassifierMaxAttempts, convey.ShouldEqual, 10)
			convey.So(cfg.ClassifierBackoff(), convey.ShouldEqual, time.Second)
			convey.So(cfg.LLMMaxTokens, convey.ShouldEqual, 150)
			convey.So(cfg.EmbeddingDimension, convey.ShouldEqual, 1536)
			convey.So(cfg.IngestBatchSize, convey.ShouldEqual, 50)
			convey.So(cfg.IngestWorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.WriteTimeout(), convey.ShouldEqual, 90*time.Second)
			convey.So(cfg.IndexReadyInterval(), convey.ShouldEqual, time.Second)
			convey.So(cfg.IndexReadyMaxAttempts, convey.ShouldEqual, 60)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When the address is empty", func() {
			cfg.Addr = ""
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When classifier attempts are zero", func() {
			cfg.ClassifierMaxAttempts = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the llm provider is unknown", func() {
			cfg.LLMProvider = "claude"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When gemini is selected without a key", func() {
			cfg.LLMProvider = "Gemini"
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg.LLMAPIKey = "k"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.LLMProvider, convey.ShouldEqual, config.ProviderGemini)
		})

		convey.Convey("When pinecone is selected without credentials", func() {
			cfg.LLMProvider = config.ProviderOpenAI
			cfg.LLMAPIKey = "k"
			cfg.VectorProvider = config.ProviderPinecone
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)

			cfg.PineconeAPIKey = "pc"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a vector index has no embedding provider", func() {
			cfg.VectorProvider = config.ProviderMemory
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
