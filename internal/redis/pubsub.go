package redisx

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// ShowingsPubSub announces that the seat inventory of a showing changed so
// other instances can drop local copies.
type ShowingsPubSub struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func NewShowingsPubSub(rdb *redis.Client) *ShowingsPubSub {
	return &ShowingsPubSub{
		rdb:     rdb,
		channel: ChannelShowingsChanged(),
		now:     time.Now,
	}
}

type showingChangedMsg struct {
	Type      string `json:"type"`
	ShowingID int64  `json:"showing_id"`
	TsUnix    int64  `json:"ts_unix"`
}

func (p *ShowingsPubSub) PublishShowingChanged(ctx context.Context, showingID int64) error {
	if p == nil {
		return nil
	}

	msg := showingChangedMsg{
		Type:      "showing_changed",
		ShowingID: showingID,
		TsUnix:    p.now().Unix(),
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}
