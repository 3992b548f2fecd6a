package transport

// Hub protocol operations. Clients send subscribe, unsubscribe and publish;
// the hub sends message frames to every client subscribed to a channel
// except the publisher.
const (
	OpSubscribe   = "sub"
	OpUnsubscribe = "unsub"
	OpPublish     = "pub"
	OpMessage     = "msg"
)

// HubMessage is one JSON text message on the hub websocket. Frame holds the
// encoded relay frame and is base64 on the wire.
type HubMessage struct {
	Op      string `json:"op" validate:"required,oneof=sub unsub pub msg"`
	Channel string `json:"channel" validate:"required,max=512"`
	Frame   []byte `json:"frame,omitempty"`
}
