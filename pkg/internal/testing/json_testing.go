package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// JSONBody marshals v into a request body. Stops the test if v can not be marshaled
func JSONBody(t *testing.T, v interface{}) io.Reader {
	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

// MustDecodeJSON decodes json from r into v or panics
func MustDecodeJSON(r io.Reader, v interface{}) {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		panic(err)
	}
}

// DecodeJSON decodes json from r into v and reports if it succeeded
func DecodeJSON(t *testing.T, r io.Reader, v interface{}) bool {
	if !assert.NotNil(t, r) {
		return false
	}
	return assert.NoError(t, json.NewDecoder(r).Decode(v))
}
