package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type theme struct {
	Name       string            `json:"name" msgpack:"name"`
	Properties map[string]string `json:"properties" msgpack:"properties"`
}

func TestByName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "json", false},
		{"json", "json", false},
		{" MsgPack ", "msgpack", false},
		{"protobuf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ByName(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestCodecsPreserveBytePayloads(t *testing.T) {
	type frame struct {
		Kind string `json:"kind" msgpack:"kind"`
		Data []byte `json:"data" msgpack:"data"`
	}

	for _, c := range []Codec{JSON, Msgpack} {
		t.Run(c.Name(), func(t *testing.T) {
			inner, err := c.Marshal(theme{Name: "dark", Properties: map[string]string{"primary": "#000"}})
			require.NoError(t, err)

			raw, err := c.Marshal(frame{Kind: "next", Data: inner})
			require.NoError(t, err)

			var out frame
			require.NoError(t, c.Unmarshal(raw, &out))
			assert.Equal(t, "next", out.Kind)

			var th theme
			require.NoError(t, c.Unmarshal(out.Data, &th))
			assert.Equal(t, "dark", th.Name)
			assert.Equal(t, "#000", th.Properties["primary"])
		})
	}
}
