package history

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/issue-lottery/internal/domain/lottery"
)

var ErrMalformedRecord = errors.New("malformed history record")

// Encode produces the wire form: {"instant","username","buckets":{name:[numbers]}}.
func Encode(rec lottery.Serialized) ([]byte, error) {
	if rec.Buckets == nil {
		rec.Buckets = map[string][]int{}
	}
	raw, err := sonic.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode history record: %w", err)
	}
	return raw, nil
}

// Decode accepts records written with any subset of buckets.
func Decode(raw []byte) (lottery.Serialized, error) {
	var rec lottery.Serialized
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		return lottery.Serialized{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if rec.Username == "" {
		return lottery.Serialized{}, fmt.Errorf("%w: username is empty", ErrMalformedRecord)
	}
	if rec.Instant.IsZero() {
		return lottery.Serialized{}, fmt.Errorf("%w: instant is empty", ErrMalformedRecord)
	}
	if rec.Buckets == nil {
		rec.Buckets = map[string][]int{}
	}
	return rec, nil
}

// DecodeAll decodes what it can. Each malformed blob is reported to onSkip
// and left out.
func DecodeAll(raws [][]byte, onSkip func(index int, err error)) []lottery.Serialized {
	out := make([]lottery.Serialized, 0, len(raws))
	for i, raw := range raws {
		rec, err := Decode(raw)
		if err != nil {
			if onSkip != nil {
				onSkip(i, err)
			}
			continue
		}
		out = append(out, rec)
	}
	return out
}
