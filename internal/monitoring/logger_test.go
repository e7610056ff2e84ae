package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	orig := Logf
	defer func() { Logf = orig }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("excluded %d frames", 3)
	assert.Equal(t, []string{"excluded 3 frames"}, got)

	SetLogger(nil)
	Logf("dropped")
	assert.Len(t, got, 1)
}
