package client

import (
	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/service"
)

// Cursor issues commands on its connection's session and owns at most one
// live ResultSet at a time.
type Cursor struct {
	conn      *Connection
	closed    bool
	resultSet *ResultSet
}

// Execute runs a command on the server and binds the response to a new
// result set. Any result set from a previous Execute is closed first, before
// the new command is issued, so no two live result sets ever exist for one
// cursor - even when the new execute fails.
func (c *Cursor) Execute(statement string) error {
	if c.closed {
		return errors.NewCursorClosedError()
	}
	if err := c.discardResultSet(); err != nil {
		return err
	}
	if !c.conn.Open() {
		return errors.NewConnectionClosedError()
	}
	req := &service.ExecuteCommandRequest{
		SessionId: c.conn.SessionID(),
		Command:   statement,
		MaxRows:   c.conn.maxRows,
	}
	resp := &service.ExecuteCommandResponse{}
	if err := c.conn.dispatcher.MakeRequest(service.MethodExecuteCommand, req, resp); err != nil {
		return err
	}
	if resp.Status.State == service.CommandStateError {
		return errors.NewDatabaseError(resp.Status.Error)
	}
	resultSet, err := newResultSet(c.conn, resp)
	if err != nil {
		return err
	}
	c.resultSet = resultSet
	return nil
}

// FetchMany returns up to n rows from the current result set
func (c *Cursor) FetchMany(n int) ([]service.Row, error) {
	resultSet, err := c.activeResultSet()
	if err != nil {
		return nil, err
	}
	return resultSet.FetchMany(n)
}

// FetchAll returns every remaining row of the current result set
func (c *Cursor) FetchAll() ([]service.Row, error) {
	resultSet, err := c.activeResultSet()
	if err != nil {
		return nil, err
	}
	return resultSet.FetchAll()
}

// Schema returns the schema of the current result set
func (c *Cursor) Schema() (*service.Schema, error) {
	resultSet, err := c.activeResultSet()
	if err != nil {
		return nil, err
	}
	return resultSet.Schema(), nil
}

// Close closes the current result set, if any, and marks the cursor closed.
// Closing an already closed cursor is a no-op.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.discardResultSet()
}

func (c *Cursor) activeResultSet() (*ResultSet, error) {
	if c.closed {
		return nil, errors.NewCursorClosedError()
	}
	if c.resultSet == nil {
		return nil, errors.NewNoResultSetError()
	}
	return c.resultSet, nil
}

// discardResultSet releases the binding before closing so a failed close can
// never lead to the same result set being closed twice
func (c *Cursor) discardResultSet() error {
	resultSet := c.resultSet
	if resultSet == nil {
		return nil
	}
	c.resultSet = nil
	return resultSet.Close()
}

// invalidate is called during connection teardown. The session close has
// already invalidated the command server-side, so the result set is marked
// closed before Close runs and no close-command round trip happens.
func (c *Cursor) invalidate() {
	if resultSet := c.resultSet; resultSet != nil {
		resultSet.markClosedServerSide()
		_ = resultSet.Close()
	}
}
