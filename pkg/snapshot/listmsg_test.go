package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeList(t *testing.T, l *List) []byte {
	t.Helper()
	buf := make([]byte, l.EncodedLength())
	n, err := l.Encode(buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
	return buf
}

func TestListRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		list List
	}{
		{"empty list", List{}},
		{
			"single descriptor",
			List{Snapshots: []Descriptor{
				{Name: "snapshot-17", LogPosition: 4096, Checksum: []byte{0xde, 0xad, 0xbe, 0xef}, Length: 1 << 20},
			}},
		},
		{
			"multiple descriptors in order",
			List{Snapshots: []Descriptor{
				{Name: "partition-1-00000042", LogPosition: 42, Checksum: []byte{1, 2, 3}, Length: 100},
				{Name: "partition-1-00000017", LogPosition: 17, Checksum: []byte{4, 5}, Length: 200},
				{Name: "partition-2-00000099", LogPosition: 99, Checksum: []byte{6}, Length: 300},
			}},
		},
		{
			"empty name",
			List{Snapshots: []Descriptor{
				{Name: "", LogPosition: 1, Checksum: []byte{7}, Length: 2},
			}},
		},
		{
			"empty checksum",
			List{Snapshots: []Descriptor{
				{Name: "bare", LogPosition: 1, Checksum: nil, Length: 2},
			}},
		},
		{
			"negative log position and length",
			List{Snapshots: []Descriptor{
				{Name: "odd", LogPosition: -1, Checksum: []byte{0xff}, Length: -7},
			}},
		},
		{
			"multibyte name",
			List{Snapshots: []Descriptor{
				{Name: "snapshot-é世界", LogPosition: 5, Checksum: []byte{9}, Length: 6},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := encodeList(t, &tt.list)

			var decoded List
			require.NoError(t, decoded.Decode(buf, 0, len(buf)))

			require.Len(t, decoded.Snapshots, len(tt.list.Snapshots))
			for i, want := range tt.list.Snapshots {
				got := decoded.Snapshots[i]
				assert.Equal(t, want.Name, got.Name)
				assert.Equal(t, want.LogPosition, got.LogPosition)
				assert.Equal(t, want.Length, got.Length)
				assert.Equal(t, want.Checksum, got.Checksum)
			}
		})
	}
}

func TestListDeterministicEncode(t *testing.T) {
	list := List{}
	list.Add("a", 1, []byte{1, 2}, 3).Add("b", 4, []byte{5}, 6)

	first := encodeList(t, &list)
	second := encodeList(t, &list)
	assert.Equal(t, first, second)
}

func TestListEncodeAtOffset(t *testing.T) {
	list := List{}
	list.Add("offset", 10, []byte{1}, 20)

	const offset = 13
	buf := make([]byte, offset+list.EncodedLength())
	n, err := list.Encode(buf, offset)
	require.NoError(t, err)

	var decoded List
	require.NoError(t, decoded.Decode(buf, offset, n))
	require.Len(t, decoded.Snapshots, 1)
	assert.Equal(t, "offset", decoded.Snapshots[0].Name)
}

func TestListEncodeBufferOverflow(t *testing.T) {
	list := List{}
	list.Add("snap", 1, []byte{1, 2, 3}, 4)

	short := make([]byte, list.EncodedLength()-1)
	base := append([]byte(nil), short...)

	n, err := list.Encode(short, 0)
	require.Error(t, err)
	assert.True(t, IsBufferOverflow(err))
	assert.Zero(t, n)

	// No partial write.
	assert.Equal(t, base, short)
}

func TestListDecodeBufferUnderflow(t *testing.T) {
	list := List{}
	list.Add("one", 1, []byte{1}, 2)
	list.Add("two", 3, []byte{4}, 5)
	buf := encodeList(t, &list)

	t.Run("truncated mid group", func(t *testing.T) {
		var decoded List
		err := decoded.Decode(buf, 0, len(buf)-5)
		require.Error(t, err)
		assert.True(t, IsBufferUnderflow(err))
		assert.Empty(t, decoded.Snapshots)
	})

	t.Run("truncated header", func(t *testing.T) {
		var decoded List
		err := decoded.Decode(buf, 0, headerSize-1)
		require.Error(t, err)
		assert.True(t, IsBufferUnderflow(err))
	})

	t.Run("region outside buffer", func(t *testing.T) {
		var decoded List
		err := decoded.Decode(buf, 0, len(buf)+1)
		require.Error(t, err)
		assert.True(t, IsBufferUnderflow(err))
	})
}

func TestListDecodeSchemaMismatch(t *testing.T) {
	list := List{}
	list.Add("snap", 1, []byte{1}, 2)
	buf := encodeList(t, &list)

	// Corrupt the template identifier.
	byteOrder.PutUint16(buf[2:], templateID+1)

	var decoded List
	err := decoded.Decode(buf, 0, len(buf))
	require.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestListEncodeUnsupportedName(t *testing.T) {
	list := List{}
	list.Add("ok", 1, nil, 2)
	list.Add("bad\xff\xfe", 3, nil, 4)

	buf := make([]byte, list.EncodedLength())
	_, err := list.Encode(buf, 0)
	require.Error(t, err)
	assert.True(t, IsUnsupportedEncoding(err))
	assert.False(t, IsBufferOverflow(err))

	var encErr *UnsupportedEncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "bad\xff\xfe", encErr.Name)
}

func TestListDecodeReplacesPreviousContents(t *testing.T) {
	first := List{}
	first.Add("first", 1, []byte{1}, 2)
	firstBuf := encodeList(t, &first)

	second := List{}
	second.Add("second-a", 3, []byte{4}, 5)
	second.Add("second-b", 6, []byte{7}, 8)
	secondBuf := encodeList(t, &second)

	var decoded List
	require.NoError(t, decoded.Decode(firstBuf, 0, len(firstBuf)))
	require.NoError(t, decoded.Decode(secondBuf, 0, len(secondBuf)))

	require.Len(t, decoded.Snapshots, 2)
	assert.Equal(t, "second-a", decoded.Snapshots[0].Name)
	assert.Equal(t, "second-b", decoded.Snapshots[1].Name)
}

func TestListEncodedLengthMatchesEncode(t *testing.T) {
	list := List{}
	list.Add("alpha", 1, []byte{1, 2, 3, 4, 5, 6, 7, 8}, 9)
	list.Add("", 2, nil, 0)

	buf := make([]byte, list.EncodedLength()+32)
	n, err := list.Encode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, list.EncodedLength(), n)
}

func TestListReset(t *testing.T) {
	list := List{}
	list.Add("snap", 1, []byte{1}, 2)
	list.Reset()
	assert.Empty(t, list.Snapshots)
	assert.Equal(t, headerSize+groupHeaderSize, list.EncodedLength())
}
