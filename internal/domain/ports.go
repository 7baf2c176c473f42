package domain

import "context"

// LoginVerdict is the credential check outcome. The protocol layer owns the
// wording shown to clients.
type LoginVerdict int

const (
	LoginOK LoginVerdict = iota
	LoginUnknownUser
	LoginBadPassword
)

type RegisterVerdict int

const (
	RegisterOK RegisterVerdict = iota
	RegisterAlreadyExists
)

// UserStore is the credential collaborator: password checking plus the
// per-user review counters that back badge computation.
type UserStore interface {
	Validate(ctx context.Context, username, password string) (LoginVerdict, error)
	Register(ctx context.Context, username, password string) (RegisterVerdict, error)
	ReviewCount(ctx context.Context, username string) (int, error)
	IncrementReviewCount(ctx context.Context, username string) error
}

// CatalogStore persists the hotel set. Whatever the format, it must
// round-trip the full ReviewEvent history or scoring silently regresses to
// "no history".
type CatalogStore interface {
	Load(ctx context.Context) ([]*Hotel, error)
	Save(ctx context.Context, hotels []*Hotel) error
}

// RankingListener is the callback capability invoked with a formatted digest
// whenever a subscribed city's ranking changes. Implementations are transport
// adapters (in-process, pub/sub, RPC stub); the core only knows this
// interface.
type RankingListener interface {
	OnRankingUpdate(city, digest string) error
}
