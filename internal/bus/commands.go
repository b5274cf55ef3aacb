package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/daemonp/envisalink2mqtt/internal/types"
	"github.com/daemonp/envisalink2mqtt/internal/util"
)

var ErrBadCommand = errors.New("unrecognized command")

const defaultCommandLabel = "Unknown Command"

// structuredCommand is the JSON form of an inbound command. Only code is
// required.
type structuredCommand struct {
	Code    json.RawMessage `json:"code"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParseCommand turns an inbound bus message into a panel command. It accepts
// the literal commands arm, disarm, fire, medical, police and status, or a
// JSON object {code, message, data}.
func ParseCommand(body []byte, masterCode string) (types.Command, error) {
	switch literal := string(body); literal {
	case "arm":
		return types.Command{Code: "030", Data: "1", Label: "Partition Arm"}, nil
	case "disarm":
		return types.Command{Code: "040", Data: "1" + masterCode, Label: "Partition Disarm"}, nil
	case "fire":
		return types.Command{Code: "060", Data: "1", Label: "Fire Panic Button"}, nil
	case "medical":
		return types.Command{Code: "060", Data: "2", Label: "Medical Panic Button"}, nil
	case "police":
		return types.Command{Code: "060", Data: "3", Label: "Police Panic Button"}, nil
	case "status":
		return types.Command{Code: "001", Label: "keyboard: status"}, nil
	}

	var sc structuredCommand
	if err := json.Unmarshal(body, &sc); err != nil {
		return types.Command{}, fmt.Errorf("%w: %q", ErrBadCommand, body)
	}
	if len(sc.Code) == 0 {
		return types.Command{}, fmt.Errorf("%w: JSON command without code", ErrBadCommand)
	}

	code, err := scalar(sc.Code)
	if err != nil || code == "" || len(code) > 3 {
		return types.Command{}, fmt.Errorf("%w: invalid code %s", ErrBadCommand, sc.Code)
	}
	if _, err := strconv.Atoi(code); err != nil {
		return types.Command{}, fmt.Errorf("%w: invalid code %s", ErrBadCommand, sc.Code)
	}

	cmd := types.Command{Code: util.ZeroPad(code, 3), Label: defaultCommandLabel}
	if sc.Message != nil {
		cmd.Label = *sc.Message
	}
	if len(sc.Data) > 0 {
		if cmd.Data, err = scalar(sc.Data); err != nil {
			return types.Command{}, fmt.Errorf("%w: invalid data %s", ErrBadCommand, sc.Data)
		}
	}
	return cmd, nil
}

// scalar renders a JSON string or number as text.
func scalar(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
