package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port    string `mapstructure:"port"`
		Env     string `mapstructure:"env"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"app"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`
	ViewState struct {
		Driver string        `mapstructure:"driver"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"viewstate"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Auth struct {
		JWTSecret     string        `mapstructure:"jwt_secret"`
		TokenLifespan time.Duration `mapstructure:"token_lifespan"`
		Issuer        string        `mapstructure:"issuer"`
		CookieName    string        `mapstructure:"cookie_name"`
		SecureCookie  bool          `mapstructure:"secure_cookie"`
	} `mapstructure:"auth"`
	Storage struct {
		Driver     string `mapstructure:"driver"`
		Cloudinary struct {
			CloudName string `mapstructure:"cloud_name"`
			ApiKey    string `mapstructure:"api_key"`
			ApiSecret string `mapstructure:"api_secret"`
		} `mapstructure:"cloudinary"`
		S3 struct {
			Endpoint      string `mapstructure:"endpoint"`
			Region        string `mapstructure:"region"`
			AccessKey     string `mapstructure:"access_key"`
			SecretKey     string `mapstructure:"secret_key"`
			PublicBaseURL string `mapstructure:"public_base_url"`
			UsePathStyle  bool   `mapstructure:"use_path_style"`
		} `mapstructure:"s3"`
	} `mapstructure:"storage"`
	Editor struct {
		HydrateOnMount   bool `mapstructure:"hydrate_on_mount"`
		MaxMediaPerBatch int  `mapstructure:"max_media_per_batch"`
	} `mapstructure:"editor"`
	Institution struct {
		FixturePath string `mapstructure:"fixture_path"`
	} `mapstructure:"institution"`
	Jaeger struct {
		OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	} `mapstructure:"jaeger"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("viewstate.driver", "redis")
	v.SetDefault("viewstate.ttl", 2*time.Hour)
	v.SetDefault("auth.token_lifespan", time.Hour)
	v.SetDefault("auth.issuer", "encore")
	v.SetDefault("auth.cookie_name", "access_token")
	v.SetDefault("storage.driver", "cloudinary")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("editor.hydrate_on_mount", true)
	v.SetDefault("editor.max_media_per_batch", 6)
}

// LoadConfig reads config.yaml from the given paths (the working directory by
// default), then .env, then the environment.
func LoadConfig(paths ...string) (cfg Config, err error) {

	err = godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err = v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read .env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.base_url", "APP_BASE_URL")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("viewstate.driver", "VIEWSTATE_DRIVER")
	v.BindEnv("viewstate.ttl", "VIEWSTATE_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("auth.jwt_secret", "AUTH_JWT_SECRET", "JWT_SECRET")
	v.BindEnv("auth.token_lifespan", "TOKEN_LIFESPAN")
	v.BindEnv("auth.cookie_name", "AUTH_COOKIE_NAME")
	v.BindEnv("auth.secure_cookie", "AUTH_SECURE_COOKIE")

	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("storage.cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("storage.cloudinary.api_secret", "CLOUDINARY_API_SECRET")
	v.BindEnv("storage.s3.endpoint", "S3_ENDPOINT")
	v.BindEnv("storage.s3.region", "S3_REGION")
	v.BindEnv("storage.s3.access_key", "S3_ACCESS_KEY")
	v.BindEnv("storage.s3.secret_key", "S3_SECRET_KEY")
	v.BindEnv("storage.s3.public_base_url", "S3_PUBLIC_BASE_URL")
	v.BindEnv("storage.s3.use_path_style", "S3_USE_PATH_STYLE")

	v.BindEnv("editor.hydrate_on_mount", "EDITOR_HYDRATE_ON_MOUNT")
	v.BindEnv("institution.fixture_path", "INSTITUTION_FIXTURE_PATH")
	v.BindEnv("jaeger.otlp_endpoint", "JAEGER_OTLP_ENDPOINT")

	err = v.Unmarshal(&cfg)
	if err != nil {
		return
	}
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}
	return
}
