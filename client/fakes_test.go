package client

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BaukJ/databricks-sql-python/conf"
	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/service"
)

var errTest = errors.New("injected failure")

type rpcCall struct {
	method service.Method
	req    interface{}
}

// fakeDispatcher records every request and replies from queued responses
type fakeDispatcher struct {
	sessionID    []byte
	executeResps []service.ExecuteCommandResponse
	fetchResps   []service.FetchCommandResultsResponse
	errByMethod  map[service.Method]error
	calls        []rpcCall
}

func (d *fakeDispatcher) MakeRequest(method service.Method, req interface{}, resp interface{}) error {
	d.calls = append(d.calls, rpcCall{method: method, req: req})
	if err := d.errByMethod[method]; err != nil {
		return err
	}
	switch method {
	case service.MethodOpenSession:
		resp.(*service.OpenSessionResponse).SessionId = d.sessionID
	case service.MethodExecuteCommand:
		r := resp.(*service.ExecuteCommandResponse)
		if len(d.executeResps) == 0 {
			*r = service.ExecuteCommandResponse{
				CommandId: []byte{0x01},
				Status:    service.CommandStatus{State: service.CommandStateSuccess},
			}
			return nil
		}
		*r = d.executeResps[0]
		d.executeResps = d.executeResps[1:]
	case service.MethodFetchCommandResults:
		r := resp.(*service.FetchCommandResultsResponse)
		if len(d.fetchResps) == 0 {
			return errors.New("no fetch response queued")
		}
		*r = d.fetchResps[0]
		d.fetchResps = d.fetchResps[1:]
	}
	return nil
}

func (d *fakeDispatcher) failWith(method service.Method, err error) {
	if d.errByMethod == nil {
		d.errByMethod = map[service.Method]error{}
	}
	d.errByMethod[method] = err
}

func (d *fakeDispatcher) callsTo(method service.Method) []rpcCall {
	var out []rpcCall
	for _, call := range d.calls {
		if call.method == method {
			out = append(out, call)
		}
	}
	return out
}

// fakeStream replays pre-baked batches
type fakeStream struct {
	batches [][]service.Row
	numRows int64
	closed  bool
}

func (s *fakeStream) NextBatch() ([]service.Row, error) {
	if len(s.batches) == 0 {
		return nil, io.EOF
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

func (s *fakeStream) NumRows() int64 {
	return s.numRows
}

func (s *fakeStream) Close() {
	s.closed = true
}

func newTestConnection(t *testing.T, dispatcher *fakeDispatcher) *Connection {
	t.Helper()
	if dispatcher.sessionID == nil {
		dispatcher.sessionID = []byte{0x33}
	}
	conn, err := ConnectWith(&conf.Config{MaxRows: 5}, dispatcher)
	require.NoError(t, err)
	return conn
}

// queueStreams makes the connection hand out the given streams in order,
// ignoring the chunk payloads
func queueStreams(t *testing.T, conn *Connection, streams ...*fakeStream) {
	t.Helper()
	conn.newStream = func(payload []byte, numRows int64) (BatchStream, error) {
		require.NotEmpty(t, streams, "no stream queued for payload")
		stream := streams[0]
		streams = streams[1:]
		return stream, nil
	}
}

func intRows(start, n int) []service.Row {
	rows := make([]service.Row, n)
	for i := range rows {
		rows[i] = service.Row{int64(start + i)}
	}
	return rows
}

func chunk(startRowOffset int64, numRows int64, hasMoreRows bool) *service.ResultChunk {
	return &service.ResultChunk{
		StartRowOffset: startRowOffset,
		NumRows:        numRows,
		HasMoreRows:    hasMoreRows,
		ArrowIpcStream: []byte("payload"),
	}
}

func successExecuteResp(commandID []byte, results *service.ResultChunk) service.ExecuteCommandResponse {
	return service.ExecuteCommandResponse{
		CommandId: commandID,
		Status:    service.CommandStatus{State: service.CommandStateSuccess},
		Schema:    &service.Schema{Columns: []service.ColumnDescriptor{{Name: "id", Type: "bigint"}}},
		Results:   results,
	}
}
