package envisalink

// CommandNames names the commands acknowledged by a 500 response.
var CommandNames = map[string]string{
	"000": "poll",
	"001": "status report",
	"005": "login",
	"008": "dump zone timers",
	"010": "set time and date",
	"020": "command output",
	"030": "partition arm",
	"031": "stay arm",
	"032": "zero entry delay",
	"033": "arm",
	"040": "disarm",
	"055": "timestamp",
	"056": "time",
	"057": "temperature",
	"060": "trigger panic alarm",
	"070": "use 071 command",
	"071": "keypad command",
	"072": "user code programming",
	"073": "user programming",
	"074": "keep alive",
	"200": "send code",
}

// SystemErrors describes the error codes carried by a 502 response.
var SystemErrors = map[string]string{
	"000": "no error",
	"001": "last command not finished",
	"002": "receive buffer overflow",
	"003": "transmit buffer overflow",
	"010": "keybus transmit buffer overrun",
	"011": "keybus transmit time timeout",
	"012": "keybus transmit mode timeout",
	"013": "keybus transmit keystring timeout",
	"014": "keybus interface failure",
	"015": "keybus disarming or arming with user code",
	"016": "keybus keypad lockout, too many disarm attempts",
	"017": "keybus closet panel in installer's mode",
	"018": "keybus requested partition is busy",
	"020": "API command syntax error",
	"021": "API partition out of bounds",
	"022": "API command not supported",
	"023": "API disarm attempted, but not armed",
	"024": "API not ready to arm",
	"025": "API command invalid length",
	"026": "API user code not required",
	"027": "API invalid characters",
}

// ArmModes describes the mode digit of a 652 response.
var ArmModes = map[string]string{
	"0": "Away",
	"1": "Stay in house",
	"2": "Zero entry away",
	"3": "Zero entry stay in house",
}

// LEDLabels names bits 0 to 7 of the keypad LED bitmask (510 and 511).
var LEDLabels = [8]string{
	"ready",
	"armed",
	"memory",
	"bypass",
	"trouble",
	"program",
	"fire",
	"backlight",
}

// TroubleLabels names bits 0 to 6 of the verbose trouble status (849).
// Bit 7 is unused.
var TroubleLabels = [8]string{
	"service required",
	"AC power lost",
	"telephone line fault (ignore)",
	"failure to communicate",
	"sensor/zone fault",
	"sensor zone tamper",
	"low battery",
	"",
}

func commandName(code string) string {
	if name, ok := CommandNames[code]; ok {
		return name
	}
	return "command " + code
}

func systemError(code string) string {
	if desc, ok := SystemErrors[code]; ok {
		return desc
	}
	return "unknown error " + code
}

func armMode(mode string) string {
	if desc, ok := ArmModes[mode]; ok {
		return desc
	}
	return "unknown (" + mode + ")"
}
