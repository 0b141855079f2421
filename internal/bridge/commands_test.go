package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTier_String(t *testing.T) {
	tests := []struct {
		tier Tier
		want string
	}{
		{TierDevice, "device"},
		{TierFog, "fog"},
		{TierCloud, "cloud"},
		{Tier(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tier.String())
		})
	}
}

func TestCommand_EncodeDecode_RoundTrip(t *testing.T) {
	cmd := &Command{
		Cmd:     CmdRexecAsy,
		ActID:   "call-1",
		ActArg:  "call-1",
		ActName: "compute",
		Payload: map[string]any{"x": float64(1)},
	}

	data, err := cmd.Encode()
	require.NoError(t, err)

	decoded, err := DecodeCommand(data)
	require.NoError(t, err)

	assert.Equal(t, cmd.Cmd, decoded.Cmd)
	assert.Equal(t, cmd.ActID, decoded.ActID)
	assert.Equal(t, cmd.ActName, decoded.ActName)
}

func TestDecodeCommand_Invalid(t *testing.T) {
	_, err := DecodeCommand([]byte("not json"))
	assert.Error(t, err)
}

func TestCmdRexecErr_IsDistinctFromNak(t *testing.T) {
	assert.Equal(t, Cmd("REXEC-ERR"), CmdRexecErr)
	assert.NotEqual(t, CmdRexecNak, CmdRexecErr)
}
