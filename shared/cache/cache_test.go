package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	type snapshot struct {
		ID    string `json:"id"`
		Total int    `json:"total"`
	}

	t.Run("strings are stored verbatim", func(t *testing.T) {
		payload, err := encode("123456")
		require.NoError(t, err)
		assert.Equal(t, []byte("123456"), payload)

		var out string
		require.NoError(t, decode(string(payload), &out, "Get"))
		assert.Equal(t, "123456", out)
	})

	t.Run("structs round trip as json", func(t *testing.T) {
		payload, err := encode(snapshot{ID: "b-1", Total: 3})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"b-1","total":3}`, string(payload))

		var out snapshot
		require.NoError(t, decode(string(payload), &out, "Get"))
		assert.Equal(t, snapshot{ID: "b-1", Total: 3}, out)
	})

	t.Run("unmarshalable values fail", func(t *testing.T) {
		_, err := encode(make(chan int))
		assert.Error(t, err)
	})

	t.Run("corrupt payload fails", func(t *testing.T) {
		var out snapshot
		assert.Error(t, decode("{", &out, "Take"))
	})
}
