package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()

	_, err := r.Service("toBlob")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)
	_, err = r.Query("getBoundingClientRect")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)

	var got Request
	r.RegisterService("toBlob", func(req Request, done Completion) {
		got = req
		done([]byte{1}, nil)
	})
	r.RegisterQuery("getBoundingClientRect", func(req Request) ([]byte, error) {
		return []byte(`{}`), nil
	})

	svc, err := r.Service("toBlob")
	require.NoError(t, err)
	var result []byte
	svc(Request{Target: 4, PixelRatio: 2}, func(data []byte, err error) { result = data })
	assert.Equal(t, int64(4), got.Target)
	assert.Equal(t, []byte{1}, result)

	q, err := r.Query("getBoundingClientRect")
	require.NoError(t, err)
	data, err := q(Request{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	r.Unregister("toBlob")
	_, err = r.Service("toBlob")
	assert.ErrorIs(t, err, ErrServiceNotRegistered)
}
