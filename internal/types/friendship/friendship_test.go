package friendship

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOther(t *testing.T) {
	f := &Friendship{ID: "a_b", UserIDs: [2]string{"a", "b"}}

	other, ok := f.Other("a")
	assert.True(t, ok)
	assert.Equal(t, "b", other)

	other, ok = f.Other("b")
	assert.True(t, ok)
	assert.Equal(t, "a", other)

	_, ok = f.Other("c")
	assert.False(t, ok)
	assert.False(t, f.Has("c"))
}
