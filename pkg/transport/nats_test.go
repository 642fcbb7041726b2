package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamespace(t *testing.T) {
	testCases := []struct {
		prefix string
		parts  []string
		want   string
	}{
		{prefix: "mxgram", parts: nil, want: "mxgram"},
		{prefix: "mxgram", parts: []string{"grams"}, want: "mxgram.grams"},
		{prefix: "mxgram", parts: []string{"rig.1", "eye"}, want: "mxgram.rig_1.eye"},
		{prefix: "mxgram", parts: []string{"*", ">", "a b"}, want: "mxgram._._.a_b"},
		{prefix: "mxgram", parts: []string{"", "x"}, want: "mxgram.x"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Namespace(tc.prefix, tc.parts...))
	}
}

func TestDialNATS_Unreachable(t *testing.T) {
	_, err := DialNATS("nats://127.0.0.1:1", "grams")
	assert.Error(t, err)
}
