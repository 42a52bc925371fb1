// Package history remembers the watch sessions joined from this machine.
package history

import (
	"time"

	"github.com/metafates/gache"
	"github.com/plst4-cli/plst4/filesystem"
	"github.com/plst4-cli/plst4/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

var cacher = gache.New[map[string]*Session](
	&gache.Options{
		Path:       where.Sessions(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// now is swapped in tests.
var now = time.Now

// Get returns every remembered session keyed by "id (server)".
func Get() (map[string]*Session, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Session), nil
	}
	return cached, nil
}

// Save records a join of session id on server.
func Save(server, id string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	record := &Session{Server: server, ID: id, JoinedAt: now(), Joins: 1}
	if existing, ok := saved[record.encode()]; ok {
		record.Joins = existing.Joins + 1
	}
	saved[record.encode()] = record

	return cacher.Set(saved)
}

// Recent lists the sessions joined on server, most recent first.
// An empty server lists all of them.
func Recent(server string) ([]*Session, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	sessions := lo.Filter(lo.Values(saved), func(s *Session, _ int) bool {
		return server == "" || s.Server == server
	})
	slices.SortFunc(sessions, func(a, b *Session) int {
		return b.JoinedAt.Compare(a.JoinedAt)
	})
	return sessions, nil
}

// Last is the most recently joined session on server.
func Last(server string) (mo.Option[*Session], error) {
	sessions, err := Recent(server)
	if err != nil {
		return mo.None[*Session](), err
	}
	if len(sessions) == 0 {
		return mo.None[*Session](), nil
	}
	return mo.Some(sessions[0]), nil
}

// Remove forgets a session.
func Remove(session *Session) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, session.encode())
	return cacher.Set(saved)
}
