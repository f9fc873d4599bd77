package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Media    *MediaConfig
	Pipeline *PipelineConfig
	Insights *InsightsConfig
	Report   *ReportConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"checkins"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string   `envconfig:"CHECKIN_ADDRESS" default:":3443"`
	MetricsAddress  string   `envconfig:"CHECKIN_METRICS_ADDRESS" default:":8080"`
	LogLevel        string   `envconfig:"CHECKIN_LOG_LEVEL" default:"info"`
	MigrationFolder string   `envconfig:"CHECKIN_MIGRATIONS_FOLDER" default:""`
	CorsOrigins     []string `envconfig:"CHECKIN_CORS_ORIGINS" default:"http://localhost:3000"`
	Auth            Auth
	Kafka           KafkaConfig
	Redis           RedisConfig
	Reaper          ReaperConfig
}

type Auth struct {
	AuthenticationType string `envconfig:"CHECKIN_AUTH" default:""`
	JwkCertURL         string `envconfig:"CHECKIN_JWK_URL" default:""`
	LocalSecret        string `envconfig:"CHECKIN_JWT_SECRET" default:""`
}

type KafkaConfig struct {
	Brokers  []string `envconfig:"CHECKIN_KAFKA_BROKERS" default:""`
	Topic    string   `envconfig:"CHECKIN_KAFKA_TOPIC" default:"checkins.events"`
	ClientID string   `envconfig:"CHECKIN_KAFKA_CLIENT_ID" default:"checkin-api"`
}

type RedisConfig struct {
	Address        string `envconfig:"CHECKIN_REDIS_ADDRESS" default:""`
	Password       string `envconfig:"CHECKIN_REDIS_PASSWORD" default:""`
	DB             int    `envconfig:"CHECKIN_REDIS_DB" default:"0"`
	UploadsPerHour int    `envconfig:"CHECKIN_UPLOADS_PER_HOUR" default:"5"`
}

type ReaperConfig struct {
	Schedule   string        `envconfig:"CHECKIN_REAPER_SCHEDULE" default:"*/10 * * * *"`
	StaleAfter time.Duration `envconfig:"CHECKIN_REAPER_STALE_AFTER" default:"2h"`
}

type MediaConfig struct {
	VideoDir           string  `envconfig:"CHECKIN_VIDEO_DIR" default:"./uploads/videos"`
	MaxUploadMB        int64   `envconfig:"CHECKIN_MAX_UPLOAD_MB" default:"100"`
	MinUploadBytes     int64   `envconfig:"CHECKIN_MIN_UPLOAD_BYTES" default:"1024"`
	MinDurationSeconds float64 `envconfig:"CHECKIN_MIN_VIDEO_SECONDS" default:"5"`
	MaxDurationSeconds float64 `envconfig:"CHECKIN_MAX_VIDEO_SECONDS" default:"300"`
	TargetFPS          float64 `envconfig:"CHECKIN_TARGET_FPS" default:"10"`
	FFProbePath        string  `envconfig:"CHECKIN_FFPROBE_PATH" default:"ffprobe"`
	PythonPath         string  `envconfig:"CHECKIN_PYTHON_PATH" default:"python3"`
	LandmarksScript    string  `envconfig:"CHECKIN_LANDMARKS_SCRIPT" default:"./scripts/landmarks.py"`
	TranscribeScript   string  `envconfig:"CHECKIN_TRANSCRIBE_SCRIPT" default:"./scripts/transcribe.py"`
	AcousticScript     string  `envconfig:"CHECKIN_ACOUSTIC_SCRIPT" default:"./scripts/acoustic.py"`
	EmotionScript      string  `envconfig:"CHECKIN_EMOTION_SCRIPT" default:""`
	LexiconFile        string  `envconfig:"CHECKIN_LEXICON_FILE" default:""`
}

type PipelineConfig struct {
	MaxWorkers         int           `envconfig:"CHECKIN_PIPELINE_WORKERS" default:"4"`
	Backlog            int           `envconfig:"CHECKIN_PIPELINE_BACKLOG" default:"100"`
	MaxExtractions     int64         `envconfig:"CHECKIN_PIPELINE_MAX_EXTRACTIONS" default:"2"`
	StageTimeout       time.Duration `envconfig:"CHECKIN_PIPELINE_STAGE_TIMEOUT" default:"5m"`
	CleanupAttempts    int           `envconfig:"CHECKIN_CLEANUP_ATTEMPTS" default:"3"`
	CleanupDelay       time.Duration `envconfig:"CHECKIN_CLEANUP_DELAY" default:"1s"`
	DefaultDisplayName string        `envconfig:"CHECKIN_DEFAULT_DISPLAY_NAME" default:"Employee"`
}

type InsightsConfig struct {
	Endpoint       string        `envconfig:"CHECKIN_LLM_URL" default:"https://api.groq.com/openai/v1/chat/completions"`
	APIKey         string        `envconfig:"CHECKIN_LLM_API_KEY" default:""`
	Model          string        `envconfig:"CHECKIN_LLM_MODEL" default:"llama-3.3-70b-versatile"`
	Shape          string        `envconfig:"CHECKIN_INSIGHTS_SHAPE" default:"narrative"`
	Attempts       int           `envconfig:"CHECKIN_LLM_ATTEMPTS" default:"3"`
	RetryDelay     time.Duration `envconfig:"CHECKIN_LLM_RETRY_DELAY" default:"1s"`
	AttemptTimeout time.Duration `envconfig:"CHECKIN_LLM_TIMEOUT" default:"30s"`
	Temperature    float64       `envconfig:"CHECKIN_LLM_TEMPERATURE" default:"0.7"`
	MaxTokens      int           `envconfig:"CHECKIN_LLM_MAX_TOKENS" default:"800"`
}

type ReportConfig struct {
	Format    string `envconfig:"CHECKIN_REPORT_FORMAT" default:"html"`
	Storage   string `envconfig:"CHECKIN_REPORT_STORAGE" default:"local"`
	Dir       string `envconfig:"CHECKIN_REPORT_DIR" default:"./uploads/reports"`
	Endpoint  string `envconfig:"CHECKIN_S3_ENDPOINT" default:""`
	Bucket    string `envconfig:"CHECKIN_S3_BUCKET" default:"checkin-reports"`
	AccessKey string `envconfig:"CHECKIN_S3_ACCESS_KEY" default:""`
	SecretKey string `envconfig:"CHECKIN_S3_SECRET_KEY" default:""`
	UseSSL    bool   `envconfig:"CHECKIN_S3_USE_SSL" default:"false"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration backed by an in-memory sqlite database.
func NewDefault() *Config {
	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		panic(err)
	}
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "file::memory:?cache=shared"
	return cfg
}
