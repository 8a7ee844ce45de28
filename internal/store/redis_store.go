package store

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/grievance-portal/internal/domain"
	apperrors "github.com/spec-kit/grievance-portal/pkg/util/errorutil"
)

const (
	// ticketPartition is the fixed partition holding all grievance rows,
	// keyed by ticket id.
	ticketPartition = "grievance:tickets"
	// ticketInitKey marks the partition as initialized so an emptied store
	// is not re-seeded.
	ticketInitKey = "grievance:tickets:init"
)

// RedisStore persists grievances as JSON rows in a hash under a fixed
// partition key, field per ticket id. Mutations overwrite a single row.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a key-value table backed store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadAll returns every row sorted by id, seeding the partition on first use.
func (s *RedisStore) LoadAll(ctx context.Context) ([]domain.Grievance, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	raw, err := s.client.HGetAll(ctx, ticketPartition).Result()
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	rows := make([]domain.Grievance, 0, len(raw))
	for _, val := range raw {
		var g domain.Grievance
		if err := json.Unmarshal([]byte(val), &g); err != nil {
			continue
		}
		rows = append(rows, g)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

// Get returns one row by id.
func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Grievance, error) {
	if err := s.ensureSeeded(ctx); err != nil {
		return nil, err
	}
	val, err := s.client.HGet(ctx, ticketPartition, id).Result()
	if err == redis.Nil {
		return nil, apperrors.NewNotFound("grievance", map[string]any{"id": id})
	}
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	var g domain.Grievance
	if err := json.Unmarshal([]byte(val), &g); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return &g, nil
}

// Append persists a new row.
func (s *RedisStore) Append(ctx context.Context, g *domain.Grievance) error {
	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}
	return s.put(ctx, g)
}

// Save overwrites an existing row.
func (s *RedisStore) Save(ctx context.Context, g *domain.Grievance) error {
	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}
	exists, err := s.client.HExists(ctx, ticketPartition, g.ID).Result()
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if !exists {
		return apperrors.NewNotFound("grievance", map[string]any{"id": g.ID})
	}
	return s.put(ctx, g)
}

func (s *RedisStore) put(ctx context.Context, g *domain.Grievance) error {
	payload, err := json.Marshal(g)
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if err := s.client.HSet(ctx, ticketPartition, g.ID, payload).Err(); err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	return nil
}

func (s *RedisStore) ensureSeeded(ctx context.Context) error {
	set, err := s.client.SetNX(ctx, ticketInitKey, "1", 0).Result()
	if err != nil {
		return apperrors.NewStoreUnavailable(err)
	}
	if !set {
		return nil
	}
	seed := SeedGrievances(time.Now())
	for i := range seed {
		if err := s.put(ctx, &seed[i]); err != nil {
			return err
		}
	}
	return nil
}
