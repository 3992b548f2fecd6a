package topic

import (
	"fmt"

	"github.com/nfrund/shellbus/internal/codec"
)

type kind string

const (
	kindNext         kind = "next"
	kindSyncRequest  kind = "sync-request"
	kindSyncResponse kind = "sync-response"
)

// frame is the message every topic instance exchanges over its channel.
// The kind tag keeps control messages apart from published values.
type frame struct {
	Kind    kind   `json:"kind" msgpack:"kind"`
	Name    string `json:"name" msgpack:"name"`
	Version int    `json:"version" msgpack:"version"`
	Data    []byte `json:"data,omitempty" msgpack:"data,omitempty"`
}

// ChannelName returns the broadcast channel shared by every instance of
// (name, version). Instances with different versions never share a channel.
func ChannelName(name string, version int) string {
	return fmt.Sprintf("Topic-%s|%d", name, version)
}

func encodeFrame(c codec.Codec, k kind, name string, version int, data []byte) ([]byte, error) {
	raw, err := c.Marshal(frame{Kind: k, Name: name, Version: version, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", k, err)
	}
	return raw, nil
}

func decodeFrame(c codec.Codec, raw []byte) (frame, error) {
	var f frame
	if err := c.Unmarshal(raw, &f); err != nil {
		return frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}
