// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// EnvProd название production-окружения.
const EnvProd = "prod"

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	GRPCAuthAddress         string `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	ClientOrigin            string `yaml:"client_origin" env:"CLIENT_ORIGIN" env-default:"http://localhost:3000"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	AuthCookie              AuthCookie `yaml:"auth_cookie"`
	RabbitMQ                RabbitMQ   `yaml:"rabbitmq"`
	SMTP                    SMTP       `yaml:"smtp"`
	Stripe                  Stripe     `yaml:"stripe"`
	TextGen                 TextGen    `yaml:"textgen"`
	Billing                 Billing    `yaml:"billing"`
	Scheduler               Scheduler  `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env-default:"60s"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps" env-default:"1"`
	RateLimitBurst int           `yaml:"rate_limit_burst" env-default:"3"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	ProfileTTL   time.Duration `yaml:"profile_ttl" env-default:"5m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"72h"`
}

// AuthCookie настройки cookie, в которой передаётся токен.
type AuthCookie struct {
	Name   string        `yaml:"name" env-default:"token"`
	MaxAge time.Duration `yaml:"max_age" env-default:"24h"`
}

// RabbitMQ настройки брокера уведомлений.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange   string        `yaml:"exchange" env-default:"notifications"`
	Queue      string        `yaml:"queue" env-default:"notifications.billing"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// Stripe настройки платёжного провайдера.
type Stripe struct {
	SecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	APIURL        string `yaml:"api_url" env:"STRIPE_API_URL"`
}

// TextGen настройки внешнего API генерации текста.
type TextGen struct {
	BaseURL          string        `yaml:"base_url" env:"TEXTGEN_BASE_URL" env-default:"https://api.openai.com/v1"`
	APIKey           string        `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model            string        `yaml:"model" env-default:"gpt-3.5-turbo-instruct"`
	ContentMaxTokens int           `yaml:"content_max_tokens" env-default:"40"`
	CodeMaxTokens    int           `yaml:"code_max_tokens" env-default:"500"`
	Timeout          time.Duration `yaml:"timeout" env-default:"30s"`
}

// Billing правила тарифов.
type Billing struct {
	TrialPeriod time.Duration  `yaml:"trial_period" env-default:"72h"`
	Currency    string         `yaml:"currency" env-default:"usd"`
	Allowances  PlanAllowances `yaml:"allowances"`
	Prices      PlanPrices     `yaml:"prices"`
}

// PlanAllowances лимиты запросов по умолчанию для каждого тарифа.
type PlanAllowances struct {
	Trial   int `yaml:"trial" env-default:"10"`
	Free    int `yaml:"free" env-default:"5"`
	Basic   int `yaml:"basic" env-default:"50"`
	Premium int `yaml:"premium" env-default:"100"`
}

// PlanPrices цены платных тарифов в основной валюте.
type PlanPrices struct {
	Basic   string `yaml:"basic" env-default:"20.00"`
	Premium string `yaml:"premium" env-default:"50.00"`
}

// Scheduler интервалы запуска фоновых проверок.
type Scheduler struct {
	TrialSweepInterval time.Duration `yaml:"trial_sweep_interval" env-default:"24h"`
	CycleSweepInterval time.Duration `yaml:"cycle_sweep_interval" env-default:"24h"`
}

// IsProduction сообщает, что сервис запущен в production-окружении.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProd
}

// Load читает конфиг из файла и переменных окружения.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if configPath == "" {
		return nil, fmt.Errorf("%s: config path is empty", op)
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad функция для загрузки конфига, путь берётся из CONFIG_PATH.
// Перед чтением подхватывается .env, если он есть.
func MustLoad() *Config {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"Billing:\n"+
			"  TrialPeriod: %s\n"+
			"  Currency: %s\n",
		c.Env,
		mask(c.StorageConnectionString),
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		c.Billing.TrialPeriod,
		c.Billing.Currency,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
