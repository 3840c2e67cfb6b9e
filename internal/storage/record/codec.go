package record

import (
	"github.com/vmihailenco/msgpack"
)

// Codec converts entities to and from their stored form.
type Codec[E any] interface {
	Encode(rec E) ([]byte, error)
	Decode(data []byte) (E, error)
}

// MsgpackCodec encodes entities with MessagePack.
//
// E should be a struct value type with msgpack field tags.
type MsgpackCodec[E any] struct{}

// Encode implements Codec.
func (MsgpackCodec[E]) Encode(rec E) ([]byte, error) {
	return msgpack.Marshal(rec)
}

// Decode implements Codec.
func (MsgpackCodec[E]) Decode(data []byte) (E, error) {
	var rec E
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		var zero E
		return zero, err
	}
	return rec, nil
}
