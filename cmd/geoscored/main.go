// Command geoscored serves point-in-region score lookups over HTTP.
//
// Configuration is environment-driven (a .env file is honored):
//
//	ADDR             listen address (default ":8000")
//	DATA_DIR         root for local artifacts (default "/data")
//	GEOMS_PATH       polygon table name (default "tracts_wkb.csv")
//	SCORES_PATH      score table name (default "tract_lookup.json")
//	SCORES_CODEC     score table codec, "json" or "go-json" (default "go-json")
//	ARTIFACT_STORE   "local" (default), "minio" or "s3"
//	ARTIFACT_BUCKET  bucket for minio/s3 stores
//	ARTIFACT_PREFIX  key prefix for minio/s3 stores
//	MINIO_ENDPOINT   minio endpoint host:port
//	MINIO_ACCESS_KEY / MINIO_SECRET_KEY / MINIO_SECURE
//	RATE_LIMIT_RPS   per-client query rate limit, 0 disables (default 0)
//	LOG_LEVEL        debug|info|warn|error (default info)
//	LOG_FORMAT       text|json (default text)
//
// Startup load is best-effort: when artifacts are missing the daemon still
// comes up not-ready and POST /reload retries once they appear.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"geoscore"
	"geoscore/blobstore"
	minioblob "geoscore/blobstore/minio"
	s3blob "geoscore/blobstore/s3"
	"geoscore/catalog"
	"geoscore/codec"
	"geoscore/internal/api"
	"geoscore/internal/metrics"
)

func main() {
	_ = godotenv.Load()

	logger := setupLogger()

	store, err := storeFromEnv(context.Background())
	if err != nil {
		logger.Error("artifact store init failed", "error", err)
		os.Exit(1)
	}

	scoresCodec, ok := codec.ByName(envOr("SCORES_CODEC", codec.Default.Name()))
	if !ok {
		logger.Error("unknown SCORES_CODEC", "name", os.Getenv("SCORES_CODEC"))
		os.Exit(1)
	}

	src := catalog.Source{
		Store:        store,
		PolygonsName: envOr("GEOMS_PATH", "tracts_wkb.csv"),
		ScoresName:   envOr("SCORES_PATH", "tract_lookup.json"),
		Codec:        scoresCodec,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := geoscore.Open(ctx, src,
		geoscore.WithLogger(logger),
		geoscore.WithMetricsCollector(metrics.Collector{}),
	)
	if err != nil {
		logger.Error("service init failed", "error", err)
		os.Exit(1)
	}
	logger.Info("service up",
		"ready", svc.Ready(),
		"geom_path", src.PolygonsName,
		"scores_path", src.ScoresName,
	)

	rps, _ := strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "0"), 64)
	router := api.NewRouter(svc, api.Config{RateLimitRPS: rps})

	srv := &http.Server{
		Addr:              envOr("ADDR", ":8000"),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func setupLogger() *geoscore.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(envOr("LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if strings.EqualFold(envOr("LOG_FORMAT", "text"), "json") {
		return geoscore.NewJSONLogger(level)
	}
	return geoscore.NewTextLogger(level)
}

func storeFromEnv(ctx context.Context) (blobstore.BlobStore, error) {
	switch strings.ToLower(envOr("ARTIFACT_STORE", "local")) {
	case "local", "":
		return blobstore.NewLocalStore(envOr("DATA_DIR", "/data")), nil

	case "minio":
		endpoint := os.Getenv("MINIO_ENDPOINT")
		bucket := os.Getenv("ARTIFACT_BUCKET")
		if endpoint == "" || bucket == "" {
			return nil, errors.New("minio store needs MINIO_ENDPOINT and ARTIFACT_BUCKET")
		}
		secure, _ := strconv.ParseBool(envOr("MINIO_SECURE", "true"))
		client, err := miniogo.New(endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
			Secure: secure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minioblob.NewStore(client, bucket, os.Getenv("ARTIFACT_PREFIX")), nil

	case "s3":
		bucket := os.Getenv("ARTIFACT_BUCKET")
		if bucket == "" {
			return nil, errors.New("s3 store needs ARTIFACT_BUCKET")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		return s3blob.NewStore(awss3.NewFromConfig(cfg), bucket, os.Getenv("ARTIFACT_PREFIX")), nil

	default:
		return nil, fmt.Errorf("unknown ARTIFACT_STORE %q", os.Getenv("ARTIFACT_STORE"))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
