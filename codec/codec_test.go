package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			in := map[string]*float64{"R1": ptr(5.25), "R2": nil}

			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out map[string]*float64
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestMustMarshal(t *testing.T) {
	assert.JSONEq(t, `{"R1": 5}`, string(MustMarshal(nil, map[string]float64{"R1": 5})))
	assert.JSONEq(t, `{"R1": 5}`, string(MustMarshal(JSON{}, map[string]float64{"R1": 5})))

	assert.Panics(t, func() { MustMarshal(JSON{}, func() {}) })
}

func ptr(f float64) *float64 { return &f }
