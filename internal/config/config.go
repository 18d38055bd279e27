package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Resolver Resolver `yaml:"resolver"`
	Auth     Auth     `yaml:"auth"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	CacheBackend  string `yaml:"cacheBackend"` // redis, memcached
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Resolver struct {
	BaseURL          string  `yaml:"baseUrl"`
	DefaultCacheTTL  int     `yaml:"defaultCacheTTL"`
	MetadataCacheTTL int     `yaml:"metadataCacheTTL"`
	DefaultMediaType string  `yaml:"defaultMediaType"`
	DefaultLanguage  string  `yaml:"defaultLanguage"`
	DefaultQuality   float64 `yaml:"defaultQuality"`
}

type Auth struct {
	JWTSecret string   `yaml:"jwtSecret"`
	Audience  string   `yaml:"audience"`
	APIKeys   []APIKey `yaml:"apiKeys"`
}

// APIKey pairs a bcrypt hash of a key with the issuer principal it
// authenticates as.
type APIKey struct {
	Issuer string `yaml:"issuer"`
	Hash   string `yaml:"hash"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8000"
	}
	if config.Server.CacheBackend == "" {
		config.Server.CacheBackend = "redis"
	}
	if config.Resolver.BaseURL == "" {
		config.Resolver.BaseURL = "https://w3id.org/linkid"
	}
	if config.Resolver.DefaultCacheTTL <= 0 {
		config.Resolver.DefaultCacheTTL = 3600
	}
	if config.Resolver.MetadataCacheTTL <= 0 {
		config.Resolver.MetadataCacheTTL = 120
	}

	return config, nil
}
