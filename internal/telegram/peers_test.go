package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputPeerOf_ShortUpdateUsesCache(t *testing.T) {
	cache := newPeerCache()
	cache.setSelf(42)
	cache.rememberInput(&tg.InputPeerUser{UserID: 777, AccessHash: 9})

	short := lookupChain{updateEntities(tg.Entities{Short: true}), cache}

	peer, err := inputPeerOf(&tg.PeerUser{UserID: 42}, short)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerSelf{}, peer)

	peer, err = inputPeerOf(&tg.PeerUser{UserID: 777}, short)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerUser{UserID: 777, AccessHash: 9}, peer)

	_, err = inputPeerOf(&tg.PeerUser{UserID: 5}, short)
	assert.Error(t, err)
}

func TestInputPeerOf_UpdateEntitiesWinOverCache(t *testing.T) {
	cache := newPeerCache()
	cache.rememberInput(&tg.InputPeerUser{UserID: 1, AccessHash: 100})

	chain := lookupChain{testEntities(), cache}
	peer, err := inputPeerOf(&tg.PeerUser{UserID: 1}, chain)
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerUser{UserID: 1, AccessHash: 11}, peer)
}

func TestPeerCache_RememberEntities(t *testing.T) {
	cache := newPeerCache()
	cache.rememberEntities(tg.Entities(testEntities()))

	u, ok := cache.User(2)
	require.True(t, ok)
	assert.Equal(t, int64(22), u.AccessHash)

	self, ok := cache.User(3)
	require.True(t, ok)
	assert.True(t, self.Self)

	ch, ok := cache.Channel(11)
	require.True(t, ok)
	assert.Equal(t, int64(110), ch.AccessHash)

	peer, err := inputPeerOf(&tg.PeerChannel{ChannelID: 11}, lookupChain{updateEntities(tg.Entities{Short: true}), cache})
	require.NoError(t, err)
	assert.Equal(t, &tg.InputPeerChannel{ChannelID: 11, AccessHash: 110}, peer)

	_, ok = cache.Channel(404)
	assert.False(t, ok)
}
