package ipcstream

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/apache/arrow/go/v12/arrow"
	"github.com/apache/arrow/go/v12/arrow/array"
	"github.com/apache/arrow/go/v12/arrow/ipc"
	"github.com/apache/arrow/go/v12/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/BaukJ/databricks-sql-python/service"
)

func buildPayload(t *testing.T, batches ...func(*array.RecordBuilder)) []byte {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "ok", Type: arrow.FixedWidthTypes.Boolean},
	}, nil)
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	for _, fill := range batches {
		fill(builder)
		record := builder.NewRecord()
		require.NoError(t, writer.Write(record))
		record.Release()
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestReadsBatchesInOrder(t *testing.T) {
	payload := buildPayload(t,
		func(b *array.RecordBuilder) {
			b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
			b.Field(1).(*array.StringBuilder).AppendValues([]string{"a", ""}, []bool{true, false})
			b.Field(2).(*array.BooleanBuilder).AppendValues([]bool{true, false}, nil)
		},
		func(b *array.RecordBuilder) {
			b.Field(0).(*array.Int64Builder).Append(3)
			b.Field(1).(*array.StringBuilder).Append("c")
			b.Field(2).(*array.BooleanBuilder).Append(true)
		},
	)

	reader, err := NewReader(payload, 3)
	require.NoError(t, err)
	require.Equal(t, int64(3), reader.NumRows())

	batch, err := reader.NextBatch()
	require.NoError(t, err)
	require.Equal(t, []service.Row{
		{int64(1), "a", true},
		{int64(2), nil, false},
	}, batch)

	batch, err = reader.NextBatch()
	require.NoError(t, err)
	require.Equal(t, []service.Row{{int64(3), "c", true}}, batch)

	_, err = reader.NextBatch()
	require.Equal(t, io.EOF, err)
	// exhausted streams stay exhausted
	_, err = reader.NextBatch()
	require.Equal(t, io.EOF, err)
}

func TestEmptyPayloadIsImmediatelyExhausted(t *testing.T) {
	reader, err := NewReader(nil, 0)
	require.NoError(t, err)
	_, err = reader.NextBatch()
	require.Equal(t, io.EOF, err)
}

func TestGarbagePayloadFailsToOpen(t *testing.T) {
	_, err := NewReader([]byte("not an ipc stream"), 1)
	require.Error(t, err)
}

func TestCloseStopsTheStream(t *testing.T) {
	payload := buildPayload(t, func(b *array.RecordBuilder) {
		b.Field(0).(*array.Int64Builder).Append(1)
		b.Field(1).(*array.StringBuilder).Append("a")
		b.Field(2).(*array.BooleanBuilder).Append(true)
	})
	reader, err := NewReader(payload, 1)
	require.NoError(t, err)
	reader.Close()
	_, err = reader.NextBatch()
	require.Equal(t, io.EOF, err)
}

func TestTimestampColumn(t *testing.T) {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "ts", Type: arrow.FixedWidthTypes.Timestamp_us},
	}, nil)
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	builder := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer builder.Release()
	when := time.Date(2021, 6, 1, 12, 30, 0, 0, time.UTC)
	builder.Field(0).(*array.TimestampBuilder).Append(arrow.Timestamp(when.UnixMicro()))
	record := builder.NewRecord()
	require.NoError(t, writer.Write(record))
	record.Release()
	require.NoError(t, writer.Close())

	reader, err := NewReader(buf.Bytes(), 1)
	require.NoError(t, err)
	batch, err := reader.NextBatch()
	require.NoError(t, err)
	require.Len(t, batch, 1)
	require.Equal(t, when, batch[0][0].(time.Time).UTC())
}
