package telegram

import (
	"fmt"

	"github.com/gotd/td/tg"

	"telereport/internal/collect"
	"telereport/internal/report"
)

// entityLookup resolves peers referenced by an update or a dialog page.
type entityLookup interface {
	User(id int64) (*tg.User, bool)
	Channel(id int64) (*tg.Channel, bool)
}

// updateEntities adapts tg.Entities to entityLookup.
type updateEntities tg.Entities

func (e updateEntities) User(id int64) (*tg.User, bool) {
	u, ok := e.Users[id]
	return u, ok
}

func (e updateEntities) Channel(id int64) (*tg.Channel, bool) {
	c, ok := e.Channels[id]
	return c, ok
}

// classifyPeer maps a dialog peer to its report bucket. Basic chats and
// megagroups are groups; every other channel, broadcast groups included,
// is a channel.
func classifyPeer(p tg.InputPeerClass, ent entityLookup) (collect.Peer, bool) {
	switch p := p.(type) {
	case *tg.InputPeerSelf:
		return collect.Peer{Kind: collect.PeerUser}, true
	case *tg.InputPeerUser:
		bot := false
		if u, ok := ent.User(p.UserID); ok {
			bot = u.Bot
		}
		return collect.Peer{Kind: collect.PeerUser, Bot: bot}, true
	case *tg.InputPeerChat:
		return collect.Peer{Kind: collect.PeerGroup}, true
	case *tg.InputPeerChannel:
		if ch, ok := ent.Channel(p.ChannelID); ok && ch.Megagroup {
			return collect.Peer{Kind: collect.PeerGroup}, true
		}
		return collect.Peer{Kind: collect.PeerChannel}, true
	default:
		return collect.Peer{}, false
	}
}

// identityOf converts the self user.
func identityOf(u *tg.User) report.Identity {
	if u == nil {
		return report.Identity{}
	}
	return report.Identity{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Premium:   u.Premium,
	}
}

// restrictedPageOf reads the page size and, for sliced results, the total.
func restrictedPageOf(res tg.ContactsBlockedClass) collect.RestrictedPage {
	switch res := res.(type) {
	case *tg.ContactsBlockedSlice:
		return collect.RestrictedPage{HasTotal: true, Total: res.Count, Returned: len(res.Blocked)}
	case *tg.ContactsBlocked:
		// Unsliced results hold the whole list.
		return collect.RestrictedPage{HasTotal: true, Total: len(res.Blocked), Returned: len(res.Blocked)}
	default:
		return collect.RestrictedPage{}
	}
}

// inputPeerOf builds the input peer for the chat a message was sent in.
func inputPeerOf(p tg.PeerClass, ent entityLookup) (tg.InputPeerClass, error) {
	switch p := p.(type) {
	case *tg.PeerUser:
		u, ok := ent.User(p.UserID)
		if !ok {
			return nil, fmt.Errorf("user %d not in update entities", p.UserID)
		}
		if u.Self {
			return &tg.InputPeerSelf{}, nil
		}
		return &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash}, nil
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}, nil
	case *tg.PeerChannel:
		ch, ok := ent.Channel(p.ChannelID)
		if !ok {
			return nil, fmt.Errorf("channel %d not in update entities", p.ChannelID)
		}
		return &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash}, nil
	default:
		return nil, fmt.Errorf("unsupported peer %T", p)
	}
}

// sentMessageID extracts the id of a message just sent.
func sentMessageID(u tg.UpdatesClass) (int, bool) {
	switch u := u.(type) {
	case *tg.UpdateShortSentMessage:
		return u.ID, true
	case *tg.UpdateShort:
		return messageIDIn([]tg.UpdateClass{u.Update})
	case *tg.Updates:
		return messageIDIn(u.Updates)
	case *tg.UpdatesCombined:
		return messageIDIn(u.Updates)
	default:
		return 0, false
	}
}

func messageIDIn(updates []tg.UpdateClass) (int, bool) {
	for _, upd := range updates {
		switch upd := upd.(type) {
		case *tg.UpdateMessageID:
			return upd.ID, true
		case *tg.UpdateNewMessage:
			if m, ok := upd.Message.(*tg.Message); ok {
				return m.ID, true
			}
		case *tg.UpdateNewChannelMessage:
			if m, ok := upd.Message.(*tg.Message); ok {
				return m.ID, true
			}
		}
	}
	return 0, false
}
