package bus

import (
	"testing"

	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	for _, tc := range []struct {
		body string
		want types.Command
	}{
		{"arm", types.Command{Code: "030", Data: "1", Label: "Partition Arm"}},
		{"disarm", types.Command{Code: "040", Data: "11234", Label: "Partition Disarm"}},
		{"fire", types.Command{Code: "060", Data: "1", Label: "Fire Panic Button"}},
		{"medical", types.Command{Code: "060", Data: "2", Label: "Medical Panic Button"}},
		{"police", types.Command{Code: "060", Data: "3", Label: "Police Panic Button"}},
		{"status", types.Command{Code: "001", Label: "keyboard: status"}},
		{`{"code": "10"}`, types.Command{Code: "010", Label: "Unknown Command"}},
		{`{"code": 10, "message": "set time", "data": "1230061215"}`, types.Command{Code: "010", Data: "1230061215", Label: "set time"}},
		{`{"code": "071", "data": 1}`, types.Command{Code: "071", Data: "1", Label: "Unknown Command"}},
		{`{"code": "5", "message": ""}`, types.Command{Code: "005", Label: ""}},
	} {
		t.Run(tc.body, func(t *testing.T) {
			got, err := ParseCommand([]byte(tc.body), "1234")
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseCommandRejects(t *testing.T) {
	for _, body := range []string{
		"",
		"ARM",
		"open the pod bay doors",
		"123",
		`{"message": "no code"}`,
		`{"code": null}`,
		`{"code": "1234"}`,
		`{"code": "abc"}`,
		`{"code": 1.5}`,
		`{"code": "001", "data": {"x": 1}}`,
		`[1, 2]`,
	} {
		t.Run(body, func(t *testing.T) {
			_, err := ParseCommand([]byte(body), "1234")
			require.ErrorIs(t, err, ErrBadCommand)
		})
	}
}
