package tcpserver

import (
	"net"
	"sync"
)

// sessionTable binds live connections to authenticated users. The two maps
// are exact inverses and are only ever updated together under one mutex, so
// no concurrent command can observe a half-bound session.
type sessionTable struct {
	mu     sync.Mutex
	byConn map[net.Conn]string
	byUser map[string]net.Conn
}

func newSessionTable() *sessionTable {
	return &sessionTable{
		byConn: map[net.Conn]string{},
		byUser: map[string]net.Conn{},
	}
}

// bound reports whether the user currently holds a connection anywhere.
func (t *sessionTable) bound(user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.byUser[user]
	return ok
}

// bind records both halves of the mapping. Returns false without mutating
// when the user is already bound elsewhere (a concurrent login won the race).
func (t *sessionTable) bind(conn net.Conn, user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byUser[user]; ok {
		return false
	}
	t.byConn[conn] = user
	t.byUser[user] = conn
	return true
}

type unbindResult int

const (
	unbindOK unbindResult = iota
	unbindNotLoggedIn
	unbindWrongConn
)

// unbind removes the binding for user, but only when the requesting
// connection is the one holding it.
func (t *sessionTable) unbind(conn net.Conn, user string) unbindResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	held, ok := t.byUser[user]
	if !ok {
		return unbindNotLoggedIn
	}
	if held != conn {
		return unbindWrongConn
	}
	delete(t.byUser, user)
	delete(t.byConn, conn)
	return unbindOK
}

// user returns the identity bound to conn, if any.
func (t *sessionTable) user(conn net.Conn) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.byConn[conn]
	return u, ok
}

// drop clears any binding held by conn, both halves atomically. Called on
// connection close regardless of which command was in flight.
func (t *sessionTable) drop(conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if user, ok := t.byConn[conn]; ok {
		delete(t.byUser, user)
		delete(t.byConn, conn)
	}
}
