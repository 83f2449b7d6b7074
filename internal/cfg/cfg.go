package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres" // каталог в PostgreSQL, сессии и блокировки в Redis
	StorageMemory   = "memory"   // всё в памяти процесса, для локального запуска без инфраструктуры
)

type Config struct {
	Storage  string
	LogLevel string
	Http     *HTTPConfig
	Db       *PGDBCfg // nil при STORAGE=memory
	Redis    *RedisCfg
	Catalog  *CatalogCfg
	Cart     *CartCfg
	Session  *SessionCfg
	Kafka    *KafkaCfg // nil, если KAFKA_BROKERS не задан
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

type HTTPConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type RedisCfg struct {
	Addr          string
	Password      string
	User          string
	DB            int
	MaxRetries    int
	DialTimeout   time.Duration
	Timeout       time.Duration
	CategoryTTL   time.Duration
	LockTTL       time.Duration // время жизни блокировки сессии, если владелец упал
	LockRetryBase time.Duration
	LockRetryMax  time.Duration
}

type CatalogCfg struct {
	DefaultPageSize int
	MaxPageSize     int
}

type CartCfg struct {
	LockTimeout time.Duration // сколько запрос ждёт блокировку сессии
	RateLimit   float64       // изменений корзины в секунду на сессию, 0 - без ограничения
	RateBurst   int
}

type SessionCfg struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
// Переменные из .env подхватываются, если файл есть; переменные окружения имеют приоритет.
func Load(log logger.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("failed to read .env: %v", err)
	}

	storage := strings.ToLower(getEnvOrDefault("STORAGE", StoragePostgres))
	if storage != StoragePostgres && storage != StorageMemory {
		err := fmt.Errorf("%w: STORAGE must be %q or %q, got %q", e.ErrIncorrectEnvVariable, StoragePostgres, StorageMemory, storage)
		log.Errorf(err, "invalid STORAGE")
		return nil, err
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var (
		db    *PGDBCfg
		redis *RedisCfg
	)
	if storage == StoragePostgres {
		db, err = loadPGDBCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}

		redis, err = loadRedisCfg(log)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	catalog, err := loadCatalogCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	cart, err := loadCartCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	session, err := loadSessionCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Storage:  storage,
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		Http:     http,
		Db:       db,
		Redis:    redis,
		Catalog:  catalog,
		Cart:     cart,
		Session:  session,
		Kafka:    kafka,
	}, nil
}

// loadKafkaCfg возвращает nil, если брокеры не заданы: события корзины тогда не публикуются.
func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultTopic             = "cart-events"
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
	)

	brokerStr := getEnv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, nil
	}

	brokers := make([]string, 0)
	for _, b := range strings.Split(brokerStr, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort            = "8080"
		defaultReadTimeout     = 5 * time.Second
		defaultWriteTimeout    = 10 * time.Second
		defaultIdleTimeout     = 60 * time.Second
		defaultShutdownTimeout = 10 * time.Second
		defaultAllowedOrigins  = "*"
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	if err != nil {
		log.Errorf(err, "invalid SHUTDOWN_TIMEOUT")
		return nil, err
	}

	origins := strings.Split(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultAllowedOrigins), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &HTTPConfig{
		Port:            port,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
		AllowedOrigins:  origins,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr          = "localhost:6379"
		defaultDB            = 0
		defaultMaxRetries    = 3
		defaultDialTimeout   = 5 * time.Second
		defaultReadTimeout   = 3 * time.Second
		defaultWriteTimeout  = 3 * time.Second
		defaultCategoryTTL   = 1 * time.Hour
		defaultLockTTL       = 10 * time.Second
		defaultLockRetryBase = 10 * time.Millisecond
		defaultLockRetryMax  = 200 * time.Millisecond
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	db, err := parseIntEnv("REDIS_DB_ID", defaultDB)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetries, err := parseIntEnv("MAX_RETRIES", defaultMaxRetries)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	categoryTTL, err := parseDurationEnv("CATEGORY_TTL", defaultCategoryTTL)
	if err != nil {
		log.Errorf(err, "invalid CATEGORY_TTL")
		return nil, err
	}

	lockTTL, err := parseDurationEnv("SESSION_LOCK_TTL", defaultLockTTL)
	if err != nil {
		log.Errorf(err, "invalid SESSION_LOCK_TTL")
		return nil, err
	}

	lockRetryBase, err := parseDurationEnv("SESSION_LOCK_RETRY_BASE", defaultLockRetryBase)
	if err != nil {
		log.Errorf(err, "invalid SESSION_LOCK_RETRY_BASE")
		return nil, err
	}

	lockRetryMax, err := parseDurationEnv("SESSION_LOCK_RETRY_MAX", defaultLockRetryMax)
	if err != nil {
		log.Errorf(err, "invalid SESSION_LOCK_RETRY_MAX")
		return nil, err
	}

	return &RedisCfg{
		Addr:          addr,
		Password:      password,
		User:          user,
		DB:            db,
		MaxRetries:    maxRetries,
		DialTimeout:   dialTimeout,
		Timeout:       max(readTimeout, writeTimeout),
		CategoryTTL:   categoryTTL,
		LockTTL:       lockTTL,
		LockRetryBase: lockRetryBase,
		LockRetryMax:  lockRetryMax,
	}, nil
}

func loadCatalogCfg() (*CatalogCfg, error) {
	const (
		defaultPageSize    = 3
		defaultMaxPageSize = 100
	)

	pageSize, err := parseIntEnv("CATALOG_PAGE_SIZE", defaultPageSize)
	if err != nil {
		return nil, e.Wrap("CATALOG_PAGE_SIZE", err)
	}

	maxPageSize, err := parseIntEnv("CATALOG_MAX_PAGE_SIZE", defaultMaxPageSize)
	if err != nil {
		return nil, e.Wrap("CATALOG_MAX_PAGE_SIZE", err)
	}

	if pageSize <= 0 || maxPageSize < pageSize {
		return nil, fmt.Errorf("%w: need 0 < CATALOG_PAGE_SIZE <= CATALOG_MAX_PAGE_SIZE", e.ErrIncorrectEnvVariable)
	}

	return &CatalogCfg{
		DefaultPageSize: pageSize,
		MaxPageSize:     maxPageSize,
	}, nil
}

func loadCartCfg() (*CartCfg, error) {
	const (
		defaultLockTimeout = 3 * time.Second
		defaultRateLimit   = 10.0
		defaultRateBurst   = 20
	)

	lockTimeout, err := parseDurationEnv("CART_LOCK_TIMEOUT", defaultLockTimeout)
	if err != nil {
		return nil, e.Wrap("CART_LOCK_TIMEOUT", err)
	}

	rateLimit, err := parseFloatEnv("CART_RATE_LIMIT", defaultRateLimit)
	if err != nil {
		return nil, e.Wrap("CART_RATE_LIMIT", err)
	}

	rateBurst, err := parseIntEnv("CART_RATE_BURST", defaultRateBurst)
	if err != nil {
		return nil, e.Wrap("CART_RATE_BURST", err)
	}

	return &CartCfg{
		LockTimeout: lockTimeout,
		RateLimit:   rateLimit,
		RateBurst:   rateBurst,
	}, nil
}

func loadSessionCfg() (*SessionCfg, error) {
	const (
		defaultCookieName = "session_id"
		defaultTTL        = 24 * time.Hour
	)

	ttl, err := parseDurationEnv("SESSION_TTL", defaultTTL)
	if err != nil {
		return nil, e.Wrap("SESSION_TTL", err)
	}

	secure, err := strconv.ParseBool(getEnvOrDefault("SESSION_COOKIE_SECURE", "false"))
	if err != nil {
		return nil, e.Wrap("SESSION_COOKIE_SECURE", e.ErrIncorrectEnvVariable)
	}

	return &SessionCfg{
		CookieName: getEnvOrDefault("SESSION_COOKIE_NAME", defaultCookieName),
		TTL:        ttl,
		Secure:     secure,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return f, nil
}
