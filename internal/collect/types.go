// Package collect gathers the decorative signals of the annual report.
// Every collector returns a Result whose Value is already the safe default
// when Err is set, so callers never have to branch on failure.
package collect

import "context"

// Result is a collector outcome. When Err is non-nil, Value holds the
// documented default for that collector.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the collector succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// PeerKind tags a conversational peer.
type PeerKind int

const (
	PeerUser PeerKind = iota
	PeerGroup
	PeerChannel
)

func (k PeerKind) String() string {
	switch k {
	case PeerUser:
		return "user"
	case PeerGroup:
		return "group"
	case PeerChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// Peer is one entry of the dialog list. Bot is only meaningful for users.
type Peer struct {
	Kind PeerKind
	Bot  bool
}

// Composition is the four-way split of all known peers.
type Composition struct {
	Private  int
	Groups   int
	Bots     int
	Channels int
}

// Total returns the number of classified peers.
func (c Composition) Total() int {
	return c.Private + c.Groups + c.Bots + c.Channels
}

// RestrictedPage is the reply to a paginated blocked-peers query.
// HasTotal is set when the collaborator reported the full count.
type RestrictedPage struct {
	HasTotal bool
	Total    int
	Returned int
}

// DialogSource enumerates every known peer.
type DialogSource interface {
	ListPeers(ctx context.Context) ([]Peer, error)
}

// ModerationSource queries the blocked/restricted peers list.
type ModerationSource interface {
	ListRestricted(ctx context.Context, offset, limit int) (RestrictedPage, error)
}
