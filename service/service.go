// Package service defines the wire-level contract of the remote command
// execution service: the set of RPC methods, the request and response
// messages they carry, and the Dispatcher through which the driver issues
// them. The concrete transport lives elsewhere so tests can substitute it.
package service

// Method identifies one RPC on the command execution service. The string
// value doubles as the request path segment on the HTTP API.
type Method string

const (
	MethodOpenSession         Method = "OpenSession"
	MethodExecuteCommand      Method = "ExecuteCommand"
	MethodFetchCommandResults Method = "FetchCommandResults"
	MethodCloseCommand        Method = "CloseCommand"
	MethodCloseSession        Method = "CloseSession"
)

// Dispatcher sends one request message and decodes the response into resp.
// Calls are synchronous - a Dispatcher either fills resp in completely or
// returns an error, there is no partial result. Implementations must not
// retain req or resp after returning.
type Dispatcher interface {
	MakeRequest(method Method, req interface{}, resp interface{}) error
}

// CommandState is the server-reported execution state of a command
type CommandState int32

const (
	CommandStateUnknown CommandState = iota
	CommandStatePending
	CommandStateRunning
	CommandStateSuccess
	CommandStateError
	CommandStateClosed
)

func (s CommandState) String() string {
	switch s {
	case CommandStatePending:
		return "pending"
	case CommandStateRunning:
		return "running"
	case CommandStateSuccess:
		return "success"
	case CommandStateError:
		return "error"
	case CommandStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// CommandStatus accompanies every response that refers to a command. Error
// carries the server-side failure message when State is CommandStateError.
type CommandStatus struct {
	State CommandState `json:"state"`
	Error string       `json:"error,omitempty"`
}

// Row is one result row as decoded from a columnar batch. Values are plain
// Go values, nil for SQL NULL. The driver applies no further coercion.
type Row []interface{}

// ColumnDescriptor describes a single output column of a command
type ColumnDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Schema is passed through from the execute response to the result set. The
// driver does not interpret it beyond exposing it to the application.
type Schema struct {
	Columns []ColumnDescriptor `json:"columns,omitempty"`
}

// ResultChunk is one page of results. StartRowOffset is the absolute offset
// of the first row of the chunk within the command's logical row sequence.
// ArrowIpcStream is an Arrow IPC stream holding NumRows rows across one or
// more record batches.
type ResultChunk struct {
	StartRowOffset int64  `json:"start_row_offset"`
	NumRows        int64  `json:"num_rows"`
	HasMoreRows    bool   `json:"has_more_rows"`
	ArrowIpcStream []byte `json:"arrow_ipc_stream,omitempty"`
}

type OpenSessionRequest struct {
	ClientName string `json:"client_name,omitempty"`
}

type OpenSessionResponse struct {
	SessionId []byte `json:"session_id"`
}

type ExecuteCommandRequest struct {
	SessionId []byte `json:"session_id"`
	Command   string `json:"command"`
	// MaxRows caps the number of rows in each result chunk
	MaxRows int64 `json:"max_rows,omitempty"`
}

type ExecuteCommandResponse struct {
	CommandId []byte        `json:"command_id"`
	Status    CommandStatus `json:"status"`
	// Closed is set when the server released the command on completion, in
	// which case no CloseCommand round trip is needed
	Closed  bool         `json:"closed,omitempty"`
	Schema  *Schema      `json:"schema,omitempty"`
	Results *ResultChunk `json:"results,omitempty"`
}

type FetchCommandResultsRequest struct {
	CommandId []byte `json:"command_id"`
	RowOffset int64  `json:"row_offset"`
	MaxRows   int64  `json:"max_rows,omitempty"`
}

type FetchCommandResultsResponse struct {
	Status  CommandStatus `json:"status"`
	Results *ResultChunk  `json:"results,omitempty"`
}

type CloseCommandRequest struct {
	CommandId []byte `json:"command_id"`
}

type CloseCommandResponse struct {
	Status CommandStatus `json:"status"`
}

type CloseSessionRequest struct {
	SessionId []byte `json:"session_id"`
}

type CloseSessionResponse struct {
}
