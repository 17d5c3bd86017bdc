package client

import (
	"io"

	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/service"
)

// BatchStream pulls successive row batches out of one result chunk payload.
// NextBatch returns io.EOF once the payload is exhausted. Streams are finite
// and cannot be restarted.
type BatchStream interface {
	NextBatch() ([]service.Row, error)
	NumRows() int64
}

// StreamFactory builds a BatchStream over a raw chunk payload and its
// declared row count
type StreamFactory func(payload []byte, numRows int64) (BatchStream, error)

// ResultSet owns the server-side command created by one Execute call and the
// paged retrieval of its rows. Rows are drawn from the locally buffered
// batch stream first; when that is exhausted and the server has more rows, a
// fetch request is issued at the current row offset and the stream replaced
// with the next chunk.
type ResultSet struct {
	conn      *Connection
	commandID []byte
	status    service.CommandState
	schema    *service.Schema

	closedServerSide bool
	hasMoreRows      bool
	// rowOffset is the absolute offset of the next row to hand to the
	// caller, advanced as rows are returned
	rowOffset int64

	stream   BatchStream
	buffered []service.Row
}

func newResultSet(conn *Connection, resp *service.ExecuteCommandResponse) (*ResultSet, error) {
	resultSet := &ResultSet{
		conn:             conn,
		commandID:        resp.CommandId,
		status:           resp.Status.State,
		schema:           resp.Schema,
		closedServerSide: resp.Closed,
	}
	if chunk := resp.Results; chunk != nil {
		resultSet.hasMoreRows = chunk.HasMoreRows
		resultSet.rowOffset = chunk.StartRowOffset
		if err := resultSet.installStream(chunk); err != nil {
			return nil, err
		}
	}
	return resultSet, nil
}

// CommandID returns the opaque command identifier assigned by the server
func (r *ResultSet) CommandID() []byte {
	out := make([]byte, len(r.commandID))
	copy(out, r.commandID)
	return out
}

// Status returns the command execution state reported by the server
func (r *ResultSet) Status() service.CommandState {
	return r.status
}

// Schema returns the schema passed through from the execute response
func (r *ResultSet) Schema() *service.Schema {
	return r.schema
}

// HasBeenClosedServerSide reports whether a server-side close for this
// command has been acknowledged or is known to be unnecessary
func (r *ResultSet) HasBeenClosedServerSide() bool {
	return r.closedServerSide
}

// FetchMany returns up to n rows. Fewer than n rows are returned only when
// the buffered stream is exhausted and the server reports no more rows -
// that is the normal end of the result, not an error.
func (r *ResultSet) FetchMany(n int) ([]service.Row, error) {
	if n < 0 {
		return nil, errors.NewInvalidFetchSizeError(n)
	}
	out := make([]service.Row, 0, n)
	for len(out) < n {
		if len(r.buffered) == 0 {
			if err := r.refill(); err != nil {
				if err == io.EOF {
					break
				}
				return nil, err
			}
		}
		take := n - len(out)
		if take > len(r.buffered) {
			take = len(r.buffered)
		}
		out = append(out, r.buffered[:take]...)
		r.buffered = r.buffered[take:]
		r.rowOffset += int64(take)
	}
	return out, nil
}

// FetchAll returns every remaining row as one ordered slice
func (r *ResultSet) FetchAll() ([]service.Row, error) {
	var out []service.Row
	for {
		if len(r.buffered) > 0 {
			out = append(out, r.buffered...)
			r.rowOffset += int64(len(r.buffered))
			r.buffered = nil
			continue
		}
		if err := r.refill(); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return out, nil
}

// Close releases the server-side command. The close is soft - local only -
// when the owning session has already been torn down, because the teardown
// invalidated the command and a close request would either error or be
// wasted work. Otherwise the close is hard and a close-command request is
// sent. Either way the result set is closed at most once; further calls are
// no-ops. If the hard close request itself fails the result set still marks
// itself closed locally and the error is returned to the caller.
func (r *ResultSet) Close() error {
	return r.close(r.conn.Open())
}

// close takes the session state as an explicit argument so the soft/hard
// decision is fixed at the moment the close starts
func (r *ResultSet) close(sessionOpen bool) error {
	if r.closedServerSide {
		return nil
	}
	r.closedServerSide = true
	r.releaseStream()
	if !sessionOpen {
		return nil
	}
	return r.conn.dispatcher.MakeRequest(service.MethodCloseCommand,
		&service.CloseCommandRequest{CommandId: r.commandID}, &service.CloseCommandResponse{})
}

// markClosedServerSide records that the command is already invalid
// server-side, e.g. because its session was torn down
func (r *ResultSet) markClosedServerSide() {
	r.closedServerSide = true
}

// refill makes at least one more row available in the local buffer, pulling
// the next batch from the current stream or fetching the next chunk from
// the server. Returns io.EOF at the true end of the result.
func (r *ResultSet) refill() error {
	for len(r.buffered) == 0 {
		if r.stream != nil {
			batch, err := r.stream.NextBatch()
			if err == nil {
				r.buffered = append(r.buffered, batch...)
				continue
			}
			if err != io.EOF {
				return err
			}
			r.releaseStream()
		}
		if !r.hasMoreRows {
			return io.EOF
		}
		if err := r.fetchNextChunk(); err != nil {
			return err
		}
	}
	return nil
}

func (r *ResultSet) fetchNextChunk() error {
	if !r.conn.Open() {
		return errors.NewConnectionClosedError()
	}
	req := &service.FetchCommandResultsRequest{
		CommandId: r.commandID,
		RowOffset: r.rowOffset,
		MaxRows:   r.conn.maxRows,
	}
	resp := &service.FetchCommandResultsResponse{}
	if err := r.conn.dispatcher.MakeRequest(service.MethodFetchCommandResults, req, resp); err != nil {
		return err
	}
	if resp.Status.State == service.CommandStateError {
		return errors.NewDatabaseError(resp.Status.Error)
	}
	chunk := resp.Results
	if chunk == nil {
		r.hasMoreRows = false
		return nil
	}
	if chunk.StartRowOffset != r.rowOffset {
		return errors.NewProtocolErrorf("result chunk starts at row %d, expected %d", chunk.StartRowOffset, r.rowOffset)
	}
	r.hasMoreRows = chunk.HasMoreRows
	return r.installStream(chunk)
}

func (r *ResultSet) installStream(chunk *service.ResultChunk) error {
	if len(chunk.ArrowIpcStream) == 0 && chunk.NumRows == 0 {
		return nil
	}
	stream, err := r.conn.newStream(chunk.ArrowIpcStream, chunk.NumRows)
	if err != nil {
		return err
	}
	r.stream = stream
	return nil
}

func (r *ResultSet) releaseStream() {
	if closer, ok := r.stream.(interface{ Close() }); ok {
		closer.Close()
	}
	r.stream = nil
}
