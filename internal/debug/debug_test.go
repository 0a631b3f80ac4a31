package debug

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestTracing(t *testing.T) {
	level := Log.GetLevel()
	out := Log.Out
	t.Cleanup(func() {
		Log.SetLevel(level)
		Log.SetOutput(out)
	})

	var buf bytes.Buffer
	Log.SetOutput(&buf)

	Log.SetLevel(logrus.WarnLevel)
	assert.False(t, Tracing())
	Printf("wl_display@1.sync(%v)", 2)
	assert.Zero(t, buf.Len())

	Log.SetLevel(logrus.TraceLevel)
	assert.True(t, Tracing())
	Printf("wl_display@1.sync(%v)", 2)
	assert.Contains(t, buf.String(), "wl_display@1.sync(2)")
}
