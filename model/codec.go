package model

import (
	"encoding/binary"
	"errors"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// Persisted metadata records share one frame so every consumer of the
// metadata store can decode them: a format byte, the uvarint length of the
// payload, then the snappy-compressed msgpack body.
const recordFormatSnappyMsgpack = 0x01

var ErrCorruptRecord = errors.New("model: corrupt meta record")

func EncodeRecord(v interface{}) ([]byte, error) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		return nil, err
	}
	compressed := snappy.Encode(nil, body)
	buf := make([]byte, 0, len(compressed)+binary.MaxVarintLen64+1)
	buf = append(buf, recordFormatSnappyMsgpack)
	buf = binary.AppendUvarint(buf, uint64(len(compressed)))
	return append(buf, compressed...), nil
}

func DecodeRecord(data []byte, v interface{}) error {
	if len(data) < 2 || data[0] != recordFormatSnappyMsgpack {
		return ErrCorruptRecord
	}
	length, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return ErrCorruptRecord
	}
	payload := data[1+n:]
	if uint64(len(payload)) != length {
		return ErrCorruptRecord
	}
	body, err := snappy.Decode(nil, payload)
	if err != nil {
		return ErrCorruptRecord
	}
	if err := msgpack.Unmarshal(body, v); err != nil {
		return ErrCorruptRecord
	}
	return nil
}
