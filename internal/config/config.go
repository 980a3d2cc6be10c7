package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	API      APIConfig
	Temporal TemporalConfig
	Archive  ArchiveConfig
	Stub     StubConfig
}

type AppConfig struct {
	Debug      bool
	LogPath    string
	StatePath  string
	SeatPolicy string
}

type APIConfig struct {
	BaseURL string
}

type TemporalConfig struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

type ArchiveConfig struct {
	// DSN selects the Postgres archive when set; the file archive is used otherwise.
	DSN string
}

type StubConfig struct {
	Port      string
	JWTSecret string
}

// Load reads an optional .env file and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("FLYEAZY_API_BASE_URL", "http://localhost:4000/api")
	v.SetDefault("FLYEAZY_DEBUG", false)
	v.SetDefault("FLYEAZY_LOG_PATH", defaultDir("logs"))
	v.SetDefault("FLYEAZY_STATE_PATH", filepath.Join(defaultDir(""), "state.json"))
	v.SetDefault("FLYEAZY_SEAT_POLICY", "reject")
	v.SetDefault("FLYEAZY_ARCHIVE_DSN", "")
	v.SetDefault("TEMPORAL_HOST", "localhost:7233")
	v.SetDefault("TEMPORAL_NAMESPACE", "default")
	v.SetDefault("TEMPORAL_TASK_QUEUE", "flight-cancellation-queue")
	v.SetDefault("STUBAPI_PORT", "4000")
	v.SetDefault("STUBAPI_JWT_SECRET", "flyeazy-dev-secret")

	return &Config{
		App: AppConfig{
			Debug:      v.GetBool("FLYEAZY_DEBUG"),
			LogPath:    v.GetString("FLYEAZY_LOG_PATH"),
			StatePath:  v.GetString("FLYEAZY_STATE_PATH"),
			SeatPolicy: v.GetString("FLYEAZY_SEAT_POLICY"),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("FLYEAZY_API_BASE_URL"), "/"),
		},
		Temporal: TemporalConfig{
			HostPort:  v.GetString("TEMPORAL_HOST"),
			Namespace: v.GetString("TEMPORAL_NAMESPACE"),
			TaskQueue: v.GetString("TEMPORAL_TASK_QUEUE"),
		},
		Archive: ArchiveConfig{
			DSN: v.GetString("FLYEAZY_ARCHIVE_DSN"),
		},
		Stub: StubConfig{
			Port:      v.GetString("STUBAPI_PORT"),
			JWTSecret: v.GetString("STUBAPI_JWT_SECRET"),
		},
	}, nil
}

func defaultDir(sub string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".flyeazy", sub)
}
