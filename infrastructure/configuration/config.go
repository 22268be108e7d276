package configuration

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"social-publisher/infrastructure/logger"

	"github.com/spf13/viper"
)

type Config struct {
	App          App                  `json:"app"`
	Database     Database             `json:"database"`
	RedisClient  RedisClient          `json:"redisClient"`
	Pubsub       Pubsub               `json:"pubsub"`
	ServiceBus   ServiceBus           `json:"serviceBus"`
	Queue        Queue                `json:"queue"`
	Worker       Worker               `json:"worker"`
	Scheduler    Scheduler            `json:"scheduler"`
	RateLimits   map[string]RateLimit `json:"rateLimits"`
	Platforms    Platforms            `json:"platforms"`
	Credentials  Credentials          `json:"credentials"`
	Notification Notification         `json:"notification"`
	Content      Content              `json:"content"`
}

type App struct {
	Port        int      `json:"port"`
	SecretKey   string   `json:"secretKey"`
	TLSEnabled  bool     `json:"tlsEnabled"`
	TLSCertFile string   `json:"tlsCertFile"`
	TLSKeyFile  string   `json:"tlsKeyFile"`
	CORSOrigins []string `json:"corsOrigins"`
}

type Database struct {
	// Vendor selects where social connections live: postgres | mssql.
	Vendor string `json:"vendor"`
	// ResultStore selects the publish result database: postgres | mysql.
	ResultStore string `json:"resultStore"`
	Psql        Db     `json:"psql"`
	Mongo       Db     `json:"mongo"`
	Mssql       Db     `json:"mssql"`
	Mysql       Db     `json:"mysql"`
}

type Db struct {
	Name     string `json:"name"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

type RedisClient struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"password"`
	Username string `json:"username"`
	DB       int    `json:"db"`
}

type Pubsub struct {
	ProjectID string `json:"projectID"`
	TopicID   string `json:"topicID"`
}

type ServiceBus struct {
	Namespace string `json:"namespace"`
	QueueName string `json:"queueName"`
}

type Queue struct {
	Driver             string        `json:"driver"` // redis | memory
	Prefix             string        `json:"prefix"`
	BackoffBase        time.Duration `json:"backoffBase"`
	CompletedRetention time.Duration `json:"completedRetention"`
	FailedRetention    time.Duration `json:"failedRetention"`
}

type Worker struct {
	Concurrency   int           `json:"concurrency"`
	JobsPerMinute int           `json:"jobsPerMinute"`
	PollInterval  time.Duration `json:"pollInterval"`
	ShutdownGrace time.Duration `json:"shutdownGrace"`
}

type Scheduler struct {
	PromotionInterval time.Duration `json:"promotionInterval"`
	Lookahead         time.Duration `json:"lookahead"`
	PromotionBatch    int           `json:"promotionBatch"`
	CleanupInterval   time.Duration `json:"cleanupInterval"`
	CompletedTTL      time.Duration `json:"completedTTL"`
	CancelledTTL      time.Duration `json:"cancelledTTL"`
	ExpiryInterval    time.Duration `json:"expiryInterval"`
	ExpiryWarning     time.Duration `json:"expiryWarning"`
	RecoveryInterval  time.Duration `json:"recoveryInterval"`
	StaleAfter        time.Duration `json:"staleAfter"`
}

type RateLimit struct {
	MaxRequests int           `json:"maxRequests"`
	Window      time.Duration `json:"window"`
	DailyLimit  int           `json:"dailyLimit"`
}

type Platforms struct {
	TikTokBaseURL     string        `json:"tiktokBaseURL"`
	GraphBaseURL      string        `json:"graphBaseURL"`
	YouTubeUploadURL  string        `json:"youtubeUploadURL"`
	TwitterAPIURL     string        `json:"twitterAPIURL"`
	TwitterUploadURL  string        `json:"twitterUploadURL"`
	LinkedInBaseURL   string        `json:"linkedInBaseURL"`
	LinkedInVersion   string        `json:"linkedInVersion"`
	PinterestBaseURL  string        `json:"pinterestBaseURL"`
	PollInterval      time.Duration `json:"pollInterval"`
	HTTPTimeout       time.Duration `json:"httpTimeout"`
	TikTokPrivacy     string        `json:"tiktokPrivacy"`
	YouTubePrivacy    string        `json:"youtubePrivacy"`
	YouTubeCategoryID string        `json:"youtubeCategoryID"`
}

type Credentials struct {
	Key string `json:"key"`
}

type Notification struct {
	Driver string `json:"driver"` // pubsub | servicebus | log
}

type Content struct {
	Store string `json:"store"` // postgres | mongo
	Mongo struct {
		Database   string `json:"database"`
		Collection string `json:"collection"`
	} `json:"mongo"`
}

var C Config

func init() {
	LoadConfig()
	initDatabase(&C)
	initRedis(&C)
	initApp(&C)
	applyDefaults(&C)
}

func LoadConfig() {
	name := getConfig()
	viper.SetConfigName(name)
	viper.SetConfigType("json")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("../../")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().Warn("Config file not found")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	}

	logger.GetLogger().WithField("config", name).Info("Config set up successfully")
	if err := viper.Unmarshal(&C); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}
}

func getConfig() string {
	name := "config"
	if env := os.Getenv("ENV"); env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initDatabase(C *Config) {
	if v := os.Getenv("DB_VENDOR"); v != "" {
		C.Database.Vendor = v
	}
	setIfEmpty(&C.Database.Psql.Name, "DB_NAME")
	setIfEmpty(&C.Database.Psql.Host, "DB_HOST")
	setIfEmpty(&C.Database.Psql.Port, "DB_PORT")
	setIfEmpty(&C.Database.Psql.User, "DB_USER")
	setIfEmpty(&C.Database.Psql.Password, "DB_PASSWORD")
	setIfEmpty(&C.Database.Psql.SSLMode, "DB_SSLMODE")

	setIfEmpty(&C.Database.Mssql.Name, "MSSQL_DB_NAME")
	setIfEmpty(&C.Database.Mssql.Host, "MSSQL_HOST")
	setIfEmpty(&C.Database.Mssql.Port, "MSSQL_PORT")
	setIfEmpty(&C.Database.Mssql.User, "MSSQL_USER")
	setIfEmpty(&C.Database.Mssql.Password, "MSSQL_PASSWORD")

	setIfEmpty(&C.Database.Mysql.Name, "MYSQL_DB_NAME")
	setIfEmpty(&C.Database.Mysql.Host, "MYSQL_HOST")
	setIfEmpty(&C.Database.Mysql.Port, "MYSQL_PORT")
	setIfEmpty(&C.Database.Mysql.User, "MYSQL_USER")
	setIfEmpty(&C.Database.Mysql.Password, "MYSQL_PASSWORD")
	setIfEmpty(&C.Database.ResultStore, "RESULT_STORE")

	setIfEmpty(&C.Database.Mongo.Host, "MONGO_HOST")
	setIfEmpty(&C.Database.Mongo.Port, "MONGO_PORT")
	setIfEmpty(&C.Database.Mongo.User, "MONGO_USER")
	setIfEmpty(&C.Database.Mongo.Password, "MONGO_PASSWORD")
	setIfEmpty(&C.Database.Mongo.Name, "MONGO_DB_NAME")

	if C.Database.Vendor == "" {
		C.Database.Vendor = "postgres"
	}
	if C.Database.ResultStore == "" {
		C.Database.ResultStore = "postgres"
	}
	if C.Database.Mysql.Port == "" {
		C.Database.Mysql.Port = "3306"
	}
	if C.Database.Psql.Port == "" {
		C.Database.Psql.Port = "5432"
	}
	if C.Database.Psql.SSLMode == "" {
		C.Database.Psql.SSLMode = "disable"
	}
	if C.Database.Mssql.Port == "" {
		C.Database.Mssql.Port = "1433"
	}
	logger.GetLogger().
		WithField("vendor", C.Database.Vendor).
		WithField("result_store", C.Database.ResultStore).
		WithField("host", C.Database.Psql.Host).
		Info("Database configuration")
}

func initRedis(C *Config) {
	setIfEmpty(&C.RedisClient.Host, "REDIS_HOST")
	setIfEmpty(&C.RedisClient.Port, "REDIS_PORT")
	setIfEmpty(&C.RedisClient.Username, "REDIS_USERNAME")
	setIfEmpty(&C.RedisClient.Password, "REDIS_PASSWORD")
	if C.RedisClient.Host == "" {
		C.RedisClient.Host = "localhost"
	}
	if C.RedisClient.Port == "" {
		C.RedisClient.Port = "6379"
	}
}

func initApp(C *Config) {
	if v := os.Getenv("SECRET_KEY"); v != "" {
		C.App.SecretKey = v
	}
	if v := os.Getenv("CREDENTIAL_KEY"); v != "" {
		C.Credentials.Key = v
	}
	// Port resolution order: APP_PORT -> PORT -> config -> default 10001
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			C.App.Port = p
		}
	}
	if C.App.Port == 0 {
		C.App.Port = 10001
	}
	if v := os.Getenv("TLS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			C.App.TLSEnabled = b
		}
	}
	setIfEmpty(&C.App.TLSCertFile, "TLS_CERT_FILE")
	setIfEmpty(&C.App.TLSKeyFile, "TLS_KEY_FILE")
	if C.App.SecretKey == "" {
		logger.GetLogger().Warn("App.SecretKey not set; JWT authentication will fail. Provide SECRET_KEY via environment.")
	}
	if C.Credentials.Key == "" {
		logger.GetLogger().Warn("Credentials.Key not set; connection tokens cannot be decrypted. Provide CREDENTIAL_KEY via environment.")
	}
}

func setIfEmpty(field *string, env string) {
	if *field != "" {
		return
	}
	if v := os.Getenv(env); v != "" {
		*field = v
	}
}
