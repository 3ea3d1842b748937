package ports

import "time"

type StreamPort interface {
	IsLive() bool
	ChannelID() string
	ChannelName() string
	Category() string
	Title() string
	Viewers() int
	StartedAt() time.Time
}

type FollowerChecker interface {
	IsFollower(userID string) (bool, error)
}
