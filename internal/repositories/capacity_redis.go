package repositories

import (
	"context"
	"errors"
	"fmt"

	"event-ticketing-api/internal/models"

	"github.com/redis/go-redis/v9"
)

// EventLoader is the slice of the SQL store the Redis ledger needs to seed a
// counter it has not seen yet. The SQL available_tickets column is not kept
// current while Redis owns the counter, so seeds are derived from the
// tickets that still hold seats.
type EventLoader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	HeldSeats(ctx context.Context, eventID string) (int, error)
}

// Script results below zero are status codes, not seat counts.
const (
	ledgerNotSeeded    = -1
	ledgerInsufficient = -2
)

// KEYS[1] capacity hash, ARGV[1] quantity.
// Returns the remaining seats, -1 when the hash is missing, or -2 followed by
// the current availability when there are not enough seats.
const reserveScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {-1, 0}
end
local available = tonumber(redis.call('HGET', KEYS[1], 'available'))
local quantity = tonumber(ARGV[1])
if available < quantity then
	return {-2, available}
end
return {redis.call('HINCRBY', KEYS[1], 'available', -quantity), 0}
`

// KEYS[1] capacity hash, ARGV[1] quantity. Clamps to the stored total.
const releaseScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local total = tonumber(redis.call('HGET', KEYS[1], 'total'))
local available = tonumber(redis.call('HGET', KEYS[1], 'available')) + tonumber(ARGV[1])
if available > total then
	available = total
end
redis.call('HSET', KEYS[1], 'available', available)
return available
`

// RedisCapacityLedger keeps per-event seat counters in Redis hashes. Each
// reserve or release is one Lua script, so it is atomic on the server.
type RedisCapacityLedger struct {
	client redis.Cmdable
	events EventLoader
}

// NewRedisCapacityLedger creates a ledger that seeds counters from events
func NewRedisCapacityLedger(client redis.Cmdable, events EventLoader) *RedisCapacityLedger {
	return &RedisCapacityLedger{client: client, events: events}
}

// capacityKey hash-tags the event id so related keys share a cluster slot
func capacityKey(eventID string) string {
	return fmt.Sprintf("{event:%s}:capacity", eventID)
}

// Reserve takes quantity seats from the event's counter
func (l *RedisCapacityLedger) Reserve(ctx context.Context, eventID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, models.ErrInvalidQuantity
	}

	key := capacityKey(eventID)

	for attempt := 0; attempt < 2; attempt++ {
		res, err := l.client.Eval(ctx, reserveScript, []string{key}, quantity).Int64Slice()
		if err != nil {
			return 0, fmt.Errorf("failed to reserve tickets: %w", err)
		}
		if len(res) != 2 {
			return 0, fmt.Errorf("unexpected reserve script result %v", res)
		}

		switch res[0] {
		case ledgerNotSeeded:
			if err := l.seed(ctx, eventID); err != nil {
				return 0, err
			}
			continue
		case ledgerInsufficient:
			available := int(res[1])
			return available, &models.InsufficientCapacityError{Requested: quantity, Available: available}
		default:
			return int(res[0]), nil
		}
	}

	return 0, fmt.Errorf("capacity counter for event %s could not be seeded", eventID)
}

// Release returns quantity seats, never exceeding total capacity
func (l *RedisCapacityLedger) Release(ctx context.Context, eventID string, quantity int) (int, error) {
	if quantity < 0 {
		return 0, models.ErrInvalidQuantity
	}

	key := capacityKey(eventID)

	for attempt := 0; attempt < 2; attempt++ {
		remaining, err := l.client.Eval(ctx, releaseScript, []string{key}, quantity).Int64()
		if err != nil {
			return 0, fmt.Errorf("failed to release tickets: %w", err)
		}

		if remaining == ledgerNotSeeded {
			if err := l.seed(ctx, eventID); err != nil {
				return 0, err
			}
			continue
		}

		return int(remaining), nil
	}

	return 0, fmt.Errorf("capacity counter for event %s could not be seeded", eventID)
}

// Available reads the counter, seeding it when missing
func (l *RedisCapacityLedger) Available(ctx context.Context, event *models.Event) (int, error) {
	key := capacityKey(event.ID)

	available, err := l.client.HGet(ctx, key, "available").Int()
	if err == nil {
		return available, nil
	}
	if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read available tickets: %w", err)
	}

	if err := l.seedFrom(ctx, event); err != nil {
		return 0, err
	}

	available, err = l.client.HGet(ctx, key, "available").Int()
	if err != nil {
		return 0, fmt.Errorf("failed to read available tickets: %w", err)
	}
	return available, nil
}

func (l *RedisCapacityLedger) seed(ctx context.Context, eventID string) error {
	event, err := l.events.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	return l.seedFrom(ctx, event)
}

// seedFrom writes total and total minus held seats into Redis. HSETNX keeps
// a racing seeder from overwriting a counter that is already in use.
func (l *RedisCapacityLedger) seedFrom(ctx context.Context, event *models.Event) error {
	held, err := l.events.HeldSeats(ctx, event.ID)
	if err != nil {
		return err
	}

	available := event.TotalCapacity - held
	if available < 0 {
		available = 0
	}

	key := capacityKey(event.ID)
	_, err = l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSetNX(ctx, key, "total", event.TotalCapacity)
		pipe.HSetNX(ctx, key, "available", available)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed capacity for event %s: %w", event.ID, err)
	}

	return nil
}
