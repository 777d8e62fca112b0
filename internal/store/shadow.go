package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

const shadowTTL = 24 * time.Hour

// Shadow mirrors live collar state into Redis under htk:shadow:<collar>
// so other processes can read positions without touching Postgres.
type Shadow struct {
	client *redis.Client
}

// NewShadow wraps an already connected client.
func NewShadow(client *redis.Client) *Shadow {
	return &Shadow{client: client}
}

func shadowKey(collarID string) string {
	return fmt.Sprintf("htk:shadow:%s", collarID)
}

// SetCollarShadow writes the collar's live fields and refreshes the TTL.
func (s *Shadow) SetCollarShadow(ctx context.Context, shadow *model.CollarShadow) error {
	key := shadowKey(shadow.CollarID)
	if err := s.client.HSet(ctx, key,
		"horse_id", shadow.HorseID,
		"lat", shadow.Lat,
		"lon", shadow.Lon,
		"bat", shadow.Battery,
		"st", string(shadow.Status),
		"ts", shadow.Timestamp,
	).Err(); err != nil {
		return fmt.Errorf("write shadow %s: %w", shadow.CollarID, err)
	}
	return s.client.Expire(ctx, key, shadowTTL).Err()
}

// CollarShadow reads one collar's shadow, nil when none exists.
func (s *Shadow) CollarShadow(ctx context.Context, collarID string) (*model.CollarShadow, error) {
	data, err := s.client.HGetAll(ctx, shadowKey(collarID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read shadow %s: %w", collarID, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	shadow := &model.CollarShadow{
		CollarID: collarID,
		HorseID:  data["horse_id"],
		Status:   model.HorseStatus(data["st"]),
	}
	shadow.Lat, _ = strconv.ParseFloat(data["lat"], 64)
	shadow.Lon, _ = strconv.ParseFloat(data["lon"], 64)
	shadow.Battery, _ = strconv.Atoi(data["bat"])
	shadow.Timestamp, _ = strconv.ParseInt(data["ts"], 10, 64)
	return shadow, nil
}
