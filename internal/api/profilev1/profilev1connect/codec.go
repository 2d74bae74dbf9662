package profilev1connect

import (
	"github.com/cockroachdb/errors"
	"github.com/goccy/go-json"
)

// CodecName is the codec name negotiated in the Content-Type.
const CodecName = "json"

// JSONCodec marshals plain Go messages with encoding/json semantics.
type JSONCodec struct{}

func (JSONCodec) Name() string {
	return CodecName
}

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal message")
	}
	return data, nil
}

func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return errors.Wrap(err, "failed to unmarshal message")
	}
	return nil
}
