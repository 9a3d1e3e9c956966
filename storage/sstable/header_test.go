package sstable

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_header_serde(t *testing.T) {
	for _, tc := range []struct {
		name   string
		header Header
	}{
		{
			name: "basic",
			header: Header{
				ID:      uuid.New(),
				Version: CurrentVersion,
				Level:   3,
			},
		},
		{
			name: "zero",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			n, err := tc.header.WriteTo(&buf)
			require.NoError(t, err)
			assert.Equal(t, tc.header.SizeOf(), uint64(n))
			assert.Equal(t, HeaderSize, buf.Len())

			var deser Header

			n, err = deser.ReadFrom(&buf)
			require.NoError(t, err)
			assert.Equal(t, tc.header.SizeOf(), uint64(n))

			assert.Equal(t, tc.header, deser)
		})
	}

	t.Run("short input", func(t *testing.T) {
		header := Header{ID: uuid.New()}
		data, err := headerBytes(&header)
		require.NoError(t, err)

		var deser Header
		_, err = deser.ReadFrom(bytes.NewReader(data[:HeaderSize-1]))
		assert.Error(t, err)
	})
}

func headerBytes(header *Header) ([]byte, error) {
	var buf bytes.Buffer
	_, err := header.WriteTo(&buf)
	return buf.Bytes(), err
}
