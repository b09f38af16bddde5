package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTransport(t *testing.T) {
	tr := NewTransport(0)
	assert.Equal(t, DefaultTimeout, tr.ResponseHeaderTimeout)
	assert.Equal(t, DefaultTimeout, tr.TLSHandshakeTimeout)

	tr = NewTransport(3 * time.Second)
	assert.Equal(t, 3*time.Second, tr.ResponseHeaderTimeout)
	assert.NotNil(t, tr.DialContext)
}
