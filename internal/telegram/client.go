// Package telegram connects the annual report to a Telegram user account
// over MTProto. It owns the session, the update dispatch of the trigger
// command and the in-place message edits.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gotd/td/session"
	td "github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/updates"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"telereport/internal/dialer"
	"telereport/internal/logging"
)

// ErrUnauthorized is returned when the session is not logged in.
var ErrUnauthorized = errors.New("telegram session is not authorized, run login first")

// ErrMissingCredentials is returned without an app id and hash.
var ErrMissingCredentials = errors.New("telegram app_id and app_hash are required")

// Config holds connection settings.
type Config struct {
	AppID       int
	AppHash     string
	SessionPath string
	// Proxy is an optional socks5:// URL.
	Proxy string
}

// Client wraps a gotd client and its update pipeline.
type Client struct {
	client     *td.Client
	dispatcher tg.UpdateDispatcher
	gaps       *updates.Manager
	peers      *peerCache
	log        *zap.Logger
}

// New creates a Client. Nothing connects until one of the run methods is
// called.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.AppID == 0 || cfg.AppHash == "" {
		return nil, ErrMissingCredentials
	}
	if log == nil {
		log = zap.NewNop()
	}

	dial, err := dialer.FromURL(cfg.Proxy)
	if err != nil {
		return nil, err
	}

	dispatcher := tg.NewUpdateDispatcher()
	gaps := updates.New(updates.Config{
		Handler: dispatcher,
		Logger:  log.Named("gaps"),
	})

	client := td.NewClient(cfg.AppID, cfg.AppHash, td.Options{
		Logger:         log.Named("mtproto"),
		SessionStorage: &session.FileStorage{Path: cfg.SessionPath},
		UpdateHandler:  gaps,
		Resolver: dcs.Plain(dcs.PlainOptions{
			Dial: dcs.DialFunc(dial),
		}),
	})

	return &Client{
		client:     client,
		dispatcher: dispatcher,
		gaps:       gaps,
		peers:      newPeerCache(),
		log:        log,
	}, nil
}

// Login authenticates interactively when the session is not authorized yet.
func (c *Client) Login(ctx context.Context, authn auth.UserAuthenticator) (*tg.User, error) {
	var self *tg.User
	err := c.client.Run(ctx, func(ctx context.Context) error {
		flow := auth.NewFlow(authn, auth.SendCodeOptions{})
		if err := c.client.Auth().IfNecessary(ctx, flow); err != nil {
			return fmt.Errorf("auth flow: %w", err)
		}
		u, err := c.client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetching self: %w", err)
		}
		self = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logging.Telegram("logged in as user %d", self.ID)
	return self, nil
}

// Do connects, checks authorization and runs fn with a live session.
func (c *Client) Do(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		if err := c.ensureAuthorized(ctx); err != nil {
			return err
		}
		return fn(ctx, c.session())
	})
}

// Handler runs one invocation for an incoming trigger message.
type Handler func(ctx context.Context, s *Session, msg *Editor)

// Listen connects and dispatches every outgoing message that matches m to
// h until ctx is done. Handlers run on their own goroutines; Listen waits
// for them before returning.
func (c *Client) Listen(ctx context.Context, m *Matcher, h Handler) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	onMessage := func(e tg.Entities, mc tg.MessageClass) error {
		msg, ok := mc.(*tg.Message)
		if !ok || !msg.Out || !m.Match(msg.Message) {
			return nil
		}
		c.peers.rememberEntities(e)
		peer, err := inputPeerOf(msg.PeerID, lookupChain{updateEntities(e), c.peers})
		if err != nil {
			logging.TelegramWarn("cannot answer message %d: %v", msg.ID, err)
			return nil
		}
		logging.TelegramDebug("trigger message %d in %T", msg.ID, peer)

		editor := c.editor(peer, msg.ID)
		wg.Add(1)
		go func() {
			defer wg.Done()
			h(ctx, c.session(), editor)
		}()
		return nil
	}

	c.dispatcher.OnNewMessage(func(_ context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		return onMessage(e, u.Message)
	})
	c.dispatcher.OnNewChannelMessage(func(_ context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		return onMessage(e, u.Message)
	})

	return c.client.Run(ctx, func(ctx context.Context) error {
		if err := c.ensureAuthorized(ctx); err != nil {
			return err
		}
		self, err := c.client.Self(ctx)
		if err != nil {
			return fmt.Errorf("fetching self: %w", err)
		}
		c.peers.setSelf(self.ID)
		// Private chats arrive as short updates; their peers come from the dialog list.
		if peers, err := c.session().ListPeers(ctx); err != nil {
			logging.TelegramWarn("warming peer cache failed: %v", err)
		} else {
			logging.TelegramDebug("peer cache warmed from %d dialogs", len(peers))
		}
		logging.Telegram("listening as user %d", self.ID)
		return c.gaps.Run(ctx, c.client.API(), self.ID, updates.AuthOptions{
			OnStart: func(ctx context.Context) {
				c.log.Info("update stream started")
			},
		})
	})
}

func (c *Client) ensureAuthorized(ctx context.Context) error {
	status, err := c.client.Auth().Status(ctx)
	if err != nil {
		return fmt.Errorf("auth status: %w", err)
	}
	if !status.Authorized {
		return ErrUnauthorized
	}
	return nil
}

func (c *Client) session() *Session {
	return &Session{client: c.client, api: c.client.API(), peers: c.peers}
}

func (c *Client) editor(peer tg.InputPeerClass, id int) *Editor {
	return &Editor{sender: message.NewSender(c.client.API()), peer: peer, id: id}
}
