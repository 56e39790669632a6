package redis

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/turtacn/EntityRisk-Intelligence/pkg/errors"
)

// encodeRecord marshals a record and canonicalizes every numeric value
// through decimal arithmetic before it is written. Scores and relevance
// values round-trip through several JSON hops (search gateway, model
// output, store) and float formatting artifacts such as exponent
// notation or binary noise would otherwise leak into stored documents.
func encodeRecord(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreEncodingFailed, "failed to encode record")
	}
	canonical, err := canonicalizeNumbers(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreEncodingFailed, "failed to canonicalize record numbers")
	}
	return canonical, nil
}

func decodeRecord(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreEncodingFailed, "failed to decode stored record")
	}
	return nil
}

// canonicalizeNumbers rewrites every JSON number in data into its exact
// decimal text form. Numbers are decoded as json.Number so no float64
// conversion happens on the way through.
func canonicalizeNumbers(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return json.Marshal(canonicalizeValue(v))
}

func canonicalizeValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		if err != nil {
			return t
		}
		return json.RawMessage(d.String())
	case map[string]interface{}:
		for k, val := range t {
			t[k] = canonicalizeValue(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = canonicalizeValue(val)
		}
		return t
	default:
		return v
	}
}
