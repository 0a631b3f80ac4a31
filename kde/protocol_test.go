package kde

import (
	"testing"

	"deedles.dev/wlkde/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolTables(t *testing.T) {
	tests := []struct {
		file     string
		iface    string
		version  int
		requests []string
	}{
		{"appmenu.xml", AppmenuManagerInterface, AppmenuManagerVersion, appmenuManagerRequests[:]},
		{"appmenu.xml", AppmenuInterface, AppmenuVersion, appmenuRequests[:]},
		{"blur.xml", BlurManagerInterface, BlurManagerVersion, blurManagerRequests[:]},
		{"blur.xml", BlurInterface, BlurVersion, blurRequests[:]},
		{"server-decoration.xml", ServerDecorationManagerInterface, ServerDecorationManagerVersion, serverDecorationManagerRequests[:]},
		{"server-decoration.xml", ServerDecorationInterface, ServerDecorationVersion, serverDecorationRequests[:]},
	}

	for _, test := range tests {
		t.Run(test.iface, func(t *testing.T) {
			proto, err := protocol.Load(test.file)
			require.NoError(t, err)

			iface, ok := proto.Interface(test.iface)
			require.True(t, ok)
			assert.Equal(t, test.version, iface.Version)

			names := make([]string, 0, len(iface.Requests))
			for _, r := range iface.Requests {
				names = append(names, r.Name)
			}
			assert.Equal(t, test.requests, names)
		})
	}
}

func TestProtocolDestructors(t *testing.T) {
	proto, err := protocol.Load("blur.xml")
	require.NoError(t, err)

	blur, ok := proto.Interface(BlurInterface)
	require.True(t, ok)
	assert.True(t, blur.Requests[opBlurRelease].IsDestructor())
	assert.False(t, blur.Requests[opBlurCommit].IsDestructor())
	assert.True(t, blur.Requests[opBlurSetRegion].Args[0].AllowNull)
}
