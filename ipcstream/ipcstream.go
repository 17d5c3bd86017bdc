// Package ipcstream decodes the Arrow IPC stream payload of a result chunk
// into rows. The stream is pulled batch by batch and cannot be restarted.
package ipcstream

import (
	"bytes"
	"io"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"

	"github.com/BaukJ/databricks-sql-python/errors"
	"github.com/BaukJ/databricks-sql-python/service"
)

// Reader pulls successive record batches from one Arrow IPC stream payload.
type Reader struct {
	reader  *ipc.Reader
	numRows int64
}

// NewReader wraps a raw IPC payload with its declared row count. An empty
// payload yields a reader that is immediately exhausted.
func NewReader(payload []byte, numRows int64) (*Reader, error) {
	if len(payload) == 0 {
		return &Reader{numRows: numRows}, nil
	}
	reader, err := ipc.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, "failed to open arrow ipc stream")
	}
	return &Reader{reader: reader, numRows: numRows}, nil
}

// NumRows returns the row count declared for the payload
func (r *Reader) NumRows() int64 {
	return r.numRows
}

// NextBatch returns rows of the next record batch, or io.EOF once the stream
// is exhausted.
func (r *Reader) NextBatch() ([]service.Row, error) {
	if r.reader == nil {
		return nil, io.EOF
	}
	if !r.reader.Next() {
		err := r.reader.Err()
		r.Close()
		if err != nil {
			return nil, errors.Wrap(err, "failed to read arrow record batch")
		}
		return nil, io.EOF
	}
	return recordToRows(r.reader.Record())
}

// Close releases the underlying IPC reader. NextBatch returns io.EOF after
// Close has been called.
func (r *Reader) Close() {
	if r.reader != nil {
		r.reader.Release()
		r.reader = nil
	}
}

func recordToRows(rec arrow.Record) ([]service.Row, error) {
	numRows := int(rec.NumRows())
	numCols := int(rec.NumCols())
	rows := make([]service.Row, numRows)
	for i := range rows {
		rows[i] = make(service.Row, numCols)
	}
	for j := 0; j < numCols; j++ {
		if err := fillColumn(rows, j, rec.Column(j)); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

//nolint:gocyclo
func fillColumn(rows []service.Row, colIndex int, col arrow.Array) error {
	for i := range rows {
		if col.IsNull(i) {
			continue
		}
		switch c := col.(type) {
		case *array.Boolean:
			rows[i][colIndex] = c.Value(i)
		case *array.Int8:
			rows[i][colIndex] = c.Value(i)
		case *array.Int16:
			rows[i][colIndex] = c.Value(i)
		case *array.Int32:
			rows[i][colIndex] = c.Value(i)
		case *array.Int64:
			rows[i][colIndex] = c.Value(i)
		case *array.Float32:
			rows[i][colIndex] = c.Value(i)
		case *array.Float64:
			rows[i][colIndex] = c.Value(i)
		case *array.String:
			rows[i][colIndex] = c.Value(i)
		case *array.Binary:
			rows[i][colIndex] = c.Value(i)
		case *array.Date32:
			rows[i][colIndex] = c.Value(i).ToTime()
		case *array.Timestamp:
			tsType, ok := c.DataType().(*arrow.TimestampType)
			if !ok {
				return errors.Errorf("timestamp column %d has unexpected data type %s", colIndex, c.DataType())
			}
			rows[i][colIndex] = c.Value(i).ToTime(tsType.Unit)
		case *array.Decimal128:
			tp, ok := c.DataType().(*arrow.Decimal128Type)
			if !ok {
				return errors.Errorf("decimal column %d has unexpected data type %s", colIndex, c.DataType())
			}
			rows[i][colIndex] = c.Value(i).ToString(tp.Scale)
		default:
			return errors.Errorf("unsupported arrow column type %s", col.DataType())
		}
	}
	return nil
}
