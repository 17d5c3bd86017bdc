// Package client implements the connect/execute/fetch lifecycle against the
// remote command execution service. A Connection owns a server-side session,
// a Cursor owns at most one live ResultSet, and a ResultSet owns the paged
// retrieval of one command's rows.
//
// A Connection and the Cursors and ResultSets hanging off it are meant to be
// driven from a single logical thread of control - callers must serialize
// Execute/Fetch/Close calls on a given Cursor themselves.
package client

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/BaukJ/databricks-sql-python/conf"
	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/ipcstream"
	"github.com/BaukJ/databricks-sql-python/service"
	"github.com/BaukJ/databricks-sql-python/transport"
)

const clientName = "dbsql-go"

// Connection owns a server-side session. Closing the connection tears the
// session down, which invalidates every command created within it.
type Connection struct {
	lock       sync.Mutex
	dispatcher service.Dispatcher
	sessionID  []byte
	open       bool
	maxRows    int64
	cursors    []*Cursor
	newStream  StreamFactory
}

// Connect opens a session on the service described by cfg
func Connect(cfg *conf.Config) (*Connection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dispatcher, err := transport.NewHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return ConnectWith(cfg, dispatcher)
}

// ConnectWith opens a session using the supplied dispatcher. It exists so
// callers and tests can substitute the transport.
func ConnectWith(cfg *conf.Config, dispatcher service.Dispatcher) (*Connection, error) {
	resp := &service.OpenSessionResponse{}
	if err := dispatcher.MakeRequest(service.MethodOpenSession, &service.OpenSessionRequest{ClientName: clientName}, resp); err != nil {
		return nil, err
	}
	maxRows := int64(conf.DefaultMaxRows)
	if cfg != nil && cfg.MaxRows > 0 {
		maxRows = cfg.MaxRows
	}
	log.Debugf("opened session %x", resp.SessionId)
	return &Connection{
		dispatcher: dispatcher,
		sessionID:  resp.SessionId,
		open:       true,
		maxRows:    maxRows,
		newStream:  defaultStreamFactory,
	}, nil
}

// WithConnection opens a session, runs fn against it and closes the session
// when fn returns, even if fn panics. fn's error takes precedence over any
// close error.
func WithConnection(cfg *conf.Config, fn func(*Connection) error) (err error) {
	conn, err := Connect(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := conn.Close()
		if err == nil {
			err = closeErr
		}
	}()
	return fn(conn)
}

// SessionID returns the opaque session identifier assigned by the server
func (c *Connection) SessionID() []byte {
	out := make([]byte, len(c.sessionID))
	copy(out, c.sessionID)
	return out
}

// Open reports whether the session has not yet been closed
func (c *Connection) Open() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.open
}

// Cursor creates a new cursor bound to this connection
func (c *Connection) Cursor() (*Cursor, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.open {
		return nil, errors.NewConnectionClosedError()
	}
	cursor := &Cursor{conn: c}
	c.cursors = append(c.cursors, cursor)
	return cursor, nil
}

// WithCursor creates a cursor, runs fn against it and closes it when fn
// returns, even if fn panics.
func (c *Connection) WithCursor(fn func(*Cursor) error) (err error) {
	cursor, err := c.Cursor()
	if err != nil {
		return err
	}
	defer func() {
		closeErr := cursor.Close()
		if err == nil {
			err = closeErr
		}
	}()
	return fn(cursor)
}

// Close tears down the server-side session. Closing an already closed
// connection is a no-op. The session is marked closed before any dependent
// result set is asked to close, so those result sets always take the soft
// close path - the session teardown has already invalidated their commands
// and a per-command close round trip would be wasted work.
func (c *Connection) Close() error {
	c.lock.Lock()
	if !c.open {
		c.lock.Unlock()
		return nil
	}
	c.open = false
	cursors := c.cursors
	c.cursors = nil
	c.lock.Unlock()

	err := c.dispatcher.MakeRequest(service.MethodCloseSession,
		&service.CloseSessionRequest{SessionId: c.sessionID}, &service.CloseSessionResponse{})
	for _, cursor := range cursors {
		cursor.invalidate()
	}
	log.Debugf("closed session %x", c.sessionID)
	return err
}

func defaultStreamFactory(payload []byte, numRows int64) (BatchStream, error) {
	return ipcstream.NewReader(payload, numRows)
}
