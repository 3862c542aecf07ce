// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Business                `yaml:"business"`
	Admin                   `yaml:"admin"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP  string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP  time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimitRPS float64       `yaml:"rate_limit_rps" env-default:"5"`
	RateBurst    int           `yaml:"rate_limit_burst" env-default:"10"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	RedisAddress      string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	RedisPassword     string        `yaml:"password" env:"REDIS_PASSWORD"`
	RedisUser         string        `yaml:"user"`
	RedisDB           int           `yaml:"db"`
	RedisMaxRetries   int           `yaml:"max_retries"`
	RedisDialTimeout  time.Duration `yaml:"dial_timeout"`
	RedisTimeoutRedis time.Duration `yaml:"timeoutredis"`
	CacheTTL          time.Duration `yaml:"cache_ttl" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ структура для подключения к брокеру уведомлений
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP структура для отправки писем участникам
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASSWORD"`
}

// Business настройки коворкинга, не относящиеся к политике доступа.
// Timezone задаёт единые границы суток для ваучеров и часов "только для участников".
type Business struct {
	Timezone        string        `yaml:"timezone" env:"BUSINESS_TIMEZONE" env-default:"Asia/Manila"`
	VoucherAmount   int           `yaml:"voucher_amount" env-default:"150"`
	ReminderEvery   time.Duration `yaml:"reminder_every" env-default:"12h"`
	NotifyFromEmail string        `yaml:"notify_from_email"`
}

// Admin учётная запись администратора, создаваемая при старте, если её нет.
// Пустой email отключает создание.
type Admin struct {
	AdminEmail    string `yaml:"email" env:"ADMIN_EMAIL"`
	AdminName     string `yaml:"name" env:"ADMIN_NAME"`
	AdminPassword string `yaml:"password" env:"ADMIN_PASSWORD"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"  CacheTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  MaxRetries: %d\n"+
			"Business:\n"+
			"  Timezone: %s\n"+
			"  VoucherAmount: %d\n"+
			"Admin:\n"+
			"  Email: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.MigrationsPath,
		c.RedisAddress,
		c.RedisUser,
		c.RedisDB,
		c.CacheTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.RabbitMQMaxRetries,
		c.Timezone,
		c.VoucherAmount,
		c.AdminEmail,
	)
}
