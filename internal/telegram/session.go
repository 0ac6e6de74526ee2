package telegram

import (
	"context"
	"fmt"

	td "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/telegram/query"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"

	"telereport/internal/collect"
	"telereport/internal/logging"
	"telereport/internal/report"
)

const dialogBatchSize = 100

// Session is a connected account. It implements the capabilities the
// report controller needs.
type Session struct {
	client *td.Client
	api    *tg.Client
	peers  *peerCache
}

// CurrentIdentity returns the logged in user.
func (s *Session) CurrentIdentity(ctx context.Context) (report.Identity, error) {
	self, err := s.client.Self(ctx)
	if err != nil {
		return report.Identity{}, err
	}
	if s.peers != nil {
		s.peers.setSelf(self.ID)
	}
	return identityOf(self), nil
}

// ListPeers walks every dialog, including archived ones.
func (s *Session) ListPeers(ctx context.Context) ([]collect.Peer, error) {
	timer := logging.StartTimer(logging.CategoryTelegram, "ListPeers")
	defer timer.Stop()

	var peers []collect.Peer
	iter := query.GetDialogs(s.api).BatchSize(dialogBatchSize).Iter()
	for iter.Next(ctx) {
		elem := iter.Value()
		if s.peers != nil {
			s.peers.rememberInput(elem.Peer)
		}
		p, ok := classifyPeer(elem.Peer, elem.Entities)
		if !ok {
			logging.TelegramDebug("skipping dialog peer %T", elem.Peer)
			continue
		}
		logging.TelegramDebug("dialog peer %s (bot=%t)", p.Kind, p.Bot)
		peers = append(peers, p)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterating dialogs: %w", err)
	}
	return peers, nil
}

// ListRestricted fetches one page of the blocked list.
func (s *Session) ListRestricted(ctx context.Context, offset, limit int) (collect.RestrictedPage, error) {
	res, err := s.api.ContactsGetBlocked(ctx, &tg.ContactsGetBlockedRequest{
		Offset: offset,
		Limit:  limit,
	})
	if err != nil {
		return collect.RestrictedPage{}, err
	}
	return restrictedPageOf(res), nil
}

// SendToSelf posts text to Saved Messages and returns an Editor for it.
func (s *Session) SendToSelf(ctx context.Context, text string) (*Editor, error) {
	sender := message.NewSender(s.api)
	upd, err := sender.Self().StyledText(ctx, html.String(nil, text))
	if err != nil {
		return nil, fmt.Errorf("sending to saved messages: %w", err)
	}
	id, ok := sentMessageID(upd)
	if !ok {
		return nil, fmt.Errorf("no message id in %T", upd)
	}
	return &Editor{sender: sender, peer: &tg.InputPeerSelf{}, id: id}, nil
}

// Editor edits one message in place with HTML formatted text.
type Editor struct {
	sender *message.Sender
	peer   tg.InputPeerClass
	id     int
}

// Edit replaces the message text. Re-sending the same text is not an error.
func (e *Editor) Edit(ctx context.Context, text string) error {
	_, err := e.sender.To(e.peer).Edit(e.id).StyledText(ctx, html.String(nil, text))
	if tgerr.Is(err, "MESSAGE_NOT_MODIFIED") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("editing message %d: %w", e.id, err)
	}
	return nil
}
