package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"mpi-linkage/internal/infrastructure/database/mongodb"
	"mpi-linkage/internal/infrastructure/database/postgres"
	"mpi-linkage/internal/infrastructure/database/redis"

	"github.com/joho/godotenv"
)

// Uniquement variables d'environnement

// Config structure unifiée
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	MongoDB     MongoConfig
	Algorithm   AlgorithmConfig
	Logging     LoggingConfig
	CORS        CORSConfig
}

// ServerConfig configuration serveur HTTP
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"`
	Port         int           `env:"SERVER_PORT"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT"`
	// LinkTimeout borne la durée totale d'un appel /link (spec §5).
	LinkTimeout time.Duration `env:"LINK_TIMEOUT"`
}

// DatabaseConfig configuration PostgreSQL (stockage MPI)
type DatabaseConfig struct {
	Host           string        `env:"DB_HOST"`
	Port           int           `env:"DB_PORT"`
	Database       string        `env:"DB_NAME"`
	Username       string        `env:"DB_USERNAME"`
	Password       string        `env:"DB_PASSWORD"`
	MaxConnections int           `env:"DB_MAX_CONNECTIONS"`
	ConnectionTTL  time.Duration `env:"DB_CONNECTION_TTL"`
	QueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT"`
	SSLMode        string        `env:"DB_SSL_MODE"`
}

// RedisConfig configuration Redis (cache de configuration d'algorithme)
type RedisConfig struct {
	Host        string        `env:"REDIS_HOST"`
	Port        int           `env:"REDIS_PORT"`
	Password    string        `env:"REDIS_PASSWORD"`
	Database    int           `env:"REDIS_DATABASE"`
	MaxRetries  int           `env:"REDIS_MAX_RETRIES"`
	PoolSize    int           `env:"REDIS_POOL_SIZE"`
	PoolTimeout time.Duration `env:"REDIS_POOL_TIMEOUT"`
}

// MongoConfig configuration MongoDB (journal d'audit des décisions)
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI"`
	Database       string        `env:"MONGODB_DATABASE"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT"`
	MaxPoolSize    int           `env:"MONGODB_MAX_POOL_SIZE"`
}

// AlgorithmConfig regroupe les réglages d'algorithme lus depuis
// l'environnement. Seul DefaultLabel est transmis au coeur (service de
// liaison) ; les quatre autres champs sont chargés et validés mais ne sont
// lus par aucun autre code : une configuration uploadée prend ses valeurs
// par défaut dans algorithm.DefaultAdvanced.
type AlgorithmConfig struct {
	DefaultLabel                 string  `env:"ALGORITHM_DEFAULT_LABEL"`
	FuzzyMatchThreshold          float64 `env:"ALGORITHM_FUZZY_MATCH_THRESHOLD"`
	FuzzyMatchMeasure            string  `env:"ALGORITHM_FUZZY_MATCH_MEASURE"`
	MaxMissingAllowedProportion  float64 `env:"ALGORITHM_MAX_MISSING_ALLOWED_PROPORTION"`
	MissingFieldPointsProportion float64 `env:"ALGORITHM_MISSING_FIELD_POINTS_PROPORTION"`
}

// LoggingConfig configuration logging
type LoggingConfig struct {
	Level string `env:"LOG_LEVEL"`
}

// CORSConfig configuration CORS
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `env:"CORS_MAX_AGE"`
}

// NewConfig charge la configuration depuis les variables d'environnement uniquement
func NewConfig() (*Config, error) {
	// Charger le fichier .env (optionnel)
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("[CONFIG] Warning: Fichier .env non trouvé: %v\n", err)
	}

	config := &Config{}

	// Déterminer environnement
	config.Environment = getEnv("APP_ENV", "development")

	// Charger configuration serveur
	config.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "localhost"),
		Port:         getEnvInt("SERVER_PORT", 4000),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30) * time.Second,
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30) * time.Second,
		LinkTimeout:  getEnvDuration("LINK_TIMEOUT", 30) * time.Second,
	}

	// Charger configuration database
	config.Database = DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvInt("DB_PORT", 5432),
		Database:       getEnv("DB_NAME", "mpi_linkage"),
		Username:       getEnv("DB_USERNAME", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 100),
		ConnectionTTL:  getEnvDuration("DB_CONNECTION_TTL", 300) * time.Second,
		QueryTimeout:   getEnvDuration("DB_QUERY_TIMEOUT", 30) * time.Second,
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
	}

	// Charger configuration Redis
	config.Redis = RedisConfig{
		Host:        getEnv("REDIS_HOST", "localhost"),
		Port:        getEnvInt("REDIS_PORT", 6379),
		Password:    getEnv("REDIS_PASSWORD", ""),
		Database:    getEnvInt("REDIS_DATABASE", 0),
		MaxRetries:  getEnvInt("REDIS_MAX_RETRIES", 3),
		PoolSize:    getEnvInt("REDIS_POOL_SIZE", 10),
		PoolTimeout: getEnvDuration("REDIS_POOL_TIMEOUT", 30) * time.Second,
	}

	// Charger configuration MongoDB
	defaultMongoURI := ""
	if config.Environment == "development" {
		defaultMongoURI = "mongodb://localhost:27017"
	}

	config.MongoDB = MongoConfig{
		URI:            getEnv("MONGODB_URI", defaultMongoURI),
		Database:       getEnv("MONGODB_DATABASE", "mpi_linkage_audit"),
		ConnectTimeout: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10) * time.Second,
		MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 100),
	}

	// Charger configuration algorithme (seul DefaultLabel est consommé par
	// le coeur — les réglages de comparaison vivent dans la configuration
	// d'algorithme uploadée via /algorithms)
	config.Algorithm = AlgorithmConfig{
		DefaultLabel:                 getEnv("ALGORITHM_DEFAULT_LABEL", "dibbs-default"),
		FuzzyMatchThreshold:          getEnvFloat("ALGORITHM_FUZZY_MATCH_THRESHOLD", 0.9),
		FuzzyMatchMeasure:            getEnv("ALGORITHM_FUZZY_MATCH_MEASURE", "JaroWinkler"),
		MaxMissingAllowedProportion:  getEnvFloat("ALGORITHM_MAX_MISSING_ALLOWED_PROPORTION", 0.5),
		MissingFieldPointsProportion: getEnvFloat("ALGORITHM_MISSING_FIELD_POINTS_PROPORTION", 0.5),
	}

	// Charger configuration logging
	config.Logging = LoggingConfig{
		Level: getEnv("LOG_LEVEL", "debug"),
	}

	// Charger configuration CORS
	config.CORS = CORSConfig{
		AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}

	// Validation configuration critique
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validation configuration échouée: %w", err)
	}

	fmt.Printf("[CONFIG] Configuration chargée pour environnement: %s\n", config.Environment)
	return config, nil
}

// Getters pour compatibilité avec le style du code existant
func (c *Config) GetDatabase() DatabaseConfig   { return c.Database }
func (c *Config) GetRedis() RedisConfig         { return c.Redis }
func (c *Config) GetMongoDB() MongoConfig       { return c.MongoDB }
func (c *Config) GetServer() ServerConfig       { return c.Server }
func (c *Config) GetAlgorithm() AlgorithmConfig { return c.Algorithm }
func (c *Config) GetLogging() LoggingConfig     { return c.Logging }
func (c *Config) GetCORS() CORSConfig           { return c.CORS }

// NewPostgresConfig convertit la configuration applicative en configuration infrastructure
func NewPostgresConfig(config *Config) *postgres.DatabaseConfig {
	return &postgres.DatabaseConfig{
		Host:     config.Database.Host,
		Port:     config.Database.Port,
		Database: config.Database.Database,
		Username: config.Database.Username,
		Password: config.Database.Password,
		SSLMode:  config.Database.SSLMode,
	}
}

func NewRedisConfig(config *Config) *redis.RedisConfig {
	return &redis.RedisConfig{
		Host:     config.Redis.Host,
		Port:     config.Redis.Port,
		Password: config.Redis.Password,
		Database: config.Redis.Database,
	}
}

func NewMongoConfig(config *Config) *mongodb.MongoConfig {
	return &mongodb.MongoConfig{
		URI:      config.MongoDB.URI,
		Database: config.MongoDB.Database,
	}
}

// Helpers pour parsing variables d'environnement
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds))
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// validateConfig valide la configuration selon l'environnement
func validateConfig(config *Config) error {
	env := config.Environment

	if env != "development" && env != "docker" && env != "test" {
		return fmt.Errorf("environnement non supporté: %s (utilisez 'development', 'test' ou 'docker')", env)
	}

	if env == "docker" && config.Database.Password == "" {
		return fmt.Errorf("variable critique manquante pour environnement docker: DB_PASSWORD")
	}

	if config.Algorithm.MaxMissingAllowedProportion < 0 || config.Algorithm.MaxMissingAllowedProportion > 1 {
		return fmt.Errorf("ALGORITHM_MAX_MISSING_ALLOWED_PROPORTION doit être entre 0 et 1")
	}

	if config.Algorithm.MissingFieldPointsProportion < 0 || config.Algorithm.MissingFieldPointsProportion > 1 {
		return fmt.Errorf("ALGORITHM_MISSING_FIELD_POINTS_PROPORTION doit être entre 0 et 1")
	}

	return nil
}
