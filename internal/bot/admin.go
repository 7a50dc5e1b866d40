package bot

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"gopkg.in/telebot.v4"
)

type memberLookup func(chat *telebot.Chat, user *telebot.User) (*telebot.ChatMember, error)

type adminEntry struct {
	isAdmin bool
	expires time.Time
}

// adminCache remembers chat administrator lookups so every admin command does
// not cost a getChatMember round trip.
type adminCache struct {
	static map[int64]struct{}
	cache  *lru.Cache
	ttl    time.Duration
	now    func() time.Time
}

func newAdminCache(staticIDs []int64, size int, ttl time.Duration) (*adminCache, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}

	static := make(map[int64]struct{}, len(staticIDs))
	for _, id := range staticIDs {
		static[id] = struct{}{}
	}

	return &adminCache{
		static: static,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

func (a *adminCache) IsAdmin(chat *telebot.Chat, user *telebot.User, lookup memberLookup) (bool, error) {
	if _, ok := a.static[user.ID]; ok {
		return true, nil
	}
	if chat == nil || chat.Type == telebot.ChatPrivate {
		return false, nil
	}

	key := fmt.Sprintf("%d:%d", chat.ID, user.ID)
	if v, ok := a.cache.Get(key); ok {
		entry := v.(adminEntry)
		if a.now().Before(entry.expires) {
			return entry.isAdmin, nil
		}
		a.cache.Remove(key)
	}

	member, err := lookup(chat, user)
	if err != nil {
		return false, fmt.Errorf("getting chat member: %w", err)
	}

	isAdmin := member.Role == telebot.Creator || member.Role == telebot.Administrator
	if a.ttl > 0 {
		a.cache.Add(key, adminEntry{isAdmin: isAdmin, expires: a.now().Add(a.ttl)})
	}
	return isAdmin, nil
}
