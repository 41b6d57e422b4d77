package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/couchcryptid/surf-data-etl/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir  string
	HTTPAddr string

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RunInterval is zero for a single run; otherwise the pipeline repeats on
	// this interval and serves health and metrics endpoints.
	RunInterval time.Duration
	HTTPTimeout time.Duration

	NDBCBaseURL         string
	NDBCStationTableURL string

	ForecastEnabled   bool
	NOMADSBaseURL     string
	ForecastVariables []string
	OpenDAPCacheSize  int

	Spots []domain.Spot

	// Optional sinks. Empty KafkaBrokers / RedisAddr disable them.
	KafkaBrokers  []string
	KafkaTopic    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
}

// spotsFile is the YAML layout of SPOTS_FILE.
type spotsFile struct {
	Spots []struct {
		Name string  `yaml:"name"`
		Buoy string  `yaml:"buoy"`
		Lat  float64 `yaml:"lat"`
		Lon  float64 `yaml:"lon"`
	} `yaml:"spots"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	forecastEnabled, err := strconv.ParseBool(sharedcfg.EnvOrDefault("FORECAST_ENABLED", "true"))
	if err != nil {
		return nil, errors.New("invalid FORECAST_ENABLED")
	}

	redisDB, err := strconv.Atoi(sharedcfg.EnvOrDefault("REDIS_DB", "0"))
	if err != nil || redisDB < 0 {
		return nil, errors.New("invalid REDIS_DB")
	}

	spots, err := loadSpots()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "data"),
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RunInterval:     runInterval,
		HTTPTimeout:     httpTimeout,

		NDBCBaseURL:         strings.TrimSuffix(sharedcfg.EnvOrDefault("NDBC_BASE_URL", "https://www.ndbc.noaa.gov/data/realtime2"), "/"),
		NDBCStationTableURL: sharedcfg.EnvOrDefault("NDBC_STATION_TABLE_URL", "https://www.ndbc.noaa.gov/data/stations/station_table.txt"),

		ForecastEnabled:   forecastEnabled,
		NOMADSBaseURL:     strings.TrimSuffix(sharedcfg.EnvOrDefault("NOMADS_BASE_URL", "https://nomads.ncep.noaa.gov/dods/wave/gfswave"), "/"),
		ForecastVariables: parseList(sharedcfg.EnvOrDefault("FORECAST_VARIABLES", strings.Join(domain.DefaultForecastVariables, ","))),
		OpenDAPCacheSize:  parseCacheSize(),

		Spots: spots,

		KafkaBrokers:  brokers,
		KafkaTopic:    sharedcfg.EnvOrDefault("KAFKA_TOPIC", "surf-records"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisStream:   sharedcfg.EnvOrDefault("REDIS_STREAM", "surf_records"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.ForecastEnabled && len(cfg.ForecastVariables) == 0 {
		return nil, errors.New("FORECAST_VARIABLES must name at least one variable")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// loadSpots reads SPOTS_FILE when set, otherwise builds the single spot from
// BUOY_ID, TARGET_LAT, TARGET_LON and SPOT_NAME.
func loadSpots() ([]domain.Spot, error) {
	if path := os.Getenv("SPOTS_FILE"); path != "" {
		return LoadSpotsFile(path)
	}

	lat, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TARGET_LAT", "41.003"), 64)
	if err != nil {
		return nil, errors.New("invalid TARGET_LAT")
	}
	lon, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("TARGET_LON", "-71.6"), 64)
	if err != nil {
		return nil, errors.New("invalid TARGET_LON")
	}

	spot := domain.Spot{
		Name: sharedcfg.EnvOrDefault("SPOT_NAME", "block-island"),
		Buoy: sharedcfg.EnvOrDefault("BUOY_ID", "44097"),
		Lat:  lat,
		Lon:  lon,
	}
	if err := validateSpot(spot); err != nil {
		return nil, err
	}
	return []domain.Spot{spot}, nil
}

// LoadSpotsFile reads a YAML list of spots.
func LoadSpotsFile(path string) ([]domain.Spot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spots file %s: %w", path, err)
	}

	var f spotsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse spots file %s: %w", path, err)
	}
	if len(f.Spots) == 0 {
		return nil, fmt.Errorf("spots file %s: no spots defined", path)
	}

	spots := make([]domain.Spot, 0, len(f.Spots))
	seen := make(map[string]bool, len(f.Spots))
	for _, s := range f.Spots {
		spot := domain.Spot{Name: s.Name, Buoy: s.Buoy, Lat: s.Lat, Lon: s.Lon}
		if err := validateSpot(spot); err != nil {
			return nil, fmt.Errorf("spots file %s: %w", path, err)
		}
		if seen[spot.Name] {
			return nil, fmt.Errorf("spots file %s: duplicate spot %q", path, spot.Name)
		}
		seen[spot.Name] = true
		spots = append(spots, spot)
	}
	return spots, nil
}

func validateSpot(s domain.Spot) error {
	if s.Name == "" {
		return errors.New("spot name is required")
	}
	if s.Lat < -90 || s.Lat > 90 {
		return fmt.Errorf("spot %q: invalid latitude %v", s.Name, s.Lat)
	}
	if s.Lon < -180 || s.Lon > 360 {
		return fmt.Errorf("spot %q: invalid longitude %v", s.Name, s.Lon)
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseCacheSize() int {
	if s := os.Getenv("OPENDAP_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 8
}
