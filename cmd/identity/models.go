package identity

import "time"

// User is SocioFeed's canonical principal.
//
// Counters are denormalized and maintained transactionally by the social
// store: they must equal the true count of the corresponding rows at all
// times. Read-modify-write at the application layer is forbidden; every
// increment goes through an atomic field update in the durable store.
type User struct {
	ID        string
	Username  string
	Email     string
	AvatarURL string

	// External identity accounts carry no local password hash.
	IsExternal bool

	TotalFollowers     int64
	TotalFollowing     int64
	TotalNotifications int64

	CreatedAt time.Time
}
