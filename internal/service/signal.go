package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/linkgenetic/linkid-resolver/internal/domain"
)

// SignalService fans mutation events out over redis pub/sub so other
// resolver instances and websocket subscribers observe registry
// changes.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, domain.EventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Subscribe streams mutation events until ctx is cancelled.
func (s *SignalService) Subscribe(ctx context.Context) (<-chan domain.Event, func()) {
	sub := s.rdb.Subscribe(ctx, domain.EventChannel)
	out := make(chan domain.Event)

	go func() {
		defer close(out)
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event domain.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}
