package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightdeals/internal/models"
)

// Cache stores the flight list of completed searches.
type Cache interface {
	Get(ctx context.Context, params models.SearchParams) ([]models.Flight, bool)
	Set(ctx context.Context, params models.SearchParams, flights []models.Flight) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      5 * time.Minute,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisCacheFromClient(client, cfg.TTL), nil
}

func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, params models.SearchParams) ([]models.Flight, bool) {
	key := generateKey(params)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}

	var flights []models.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, false
	}

	return flights, true
}

func (c *RedisCache) Set(ctx context.Context, params models.SearchParams, flights []models.Flight) error {
	key := generateKey(params)

	data, err := json.Marshal(flights)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, params models.SearchParams) ([]models.Flight, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, params models.SearchParams, flights []models.Flight) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// generateKey hashes the fields that change the upstream result. Airport and
// country order does not matter.
func generateKey(p models.SearchParams) string {
	origins := normalized(p.OriginAirports)
	countries := normalized(p.WantedCountries)

	keyData := struct {
		TripType     models.TripType
		StartDate    string
		EndDate      string
		WeekendCount int
		Passengers   models.Passengers
		Origins      []string
		Countries    []string
		MaxPrice     float64
		MinDays      int
		MaxDays      int
	}{
		TripType:     p.TripType,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		WeekendCount: p.WeekendCount,
		Passengers:   p.Passengers,
		Origins:      origins,
		Countries:    countries,
		MaxPrice:     p.MaxPrice,
		MinDays:      p.MinDays,
		MaxDays:      p.MaxDays,
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "search:" + hex.EncodeToString(hash[:])
}

func normalized(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	sort.Strings(out)
	return out
}
