package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

var registry = map[string]ErrorTemplate{
	// Codec errors (W001-W019)

	"W001": {
		Category: CategoryCodec,
		Message:  "Bit stream overflow",
		Detail:   "A message did not fit in the output buffer. Raise the packet size limit or send fewer messages per packet.",
	},
	"W002": {
		Category: CategoryCodec,
		Message:  "Bit stream underflow",
		Detail:   "The input ended before the message was fully read. The packet is truncated or was produced by a different protocol version.",
	},
	"W003": {
		Category: CategoryCodec,
		Message:  "Unknown game type",
		Detail:   "A game type name or code is not in the registry for this protocol version, or the name belongs to a different category than the field expects.",
	},
	"W004": {
		Category: CategoryCodec,
		Message:  "Value out of range",
		Detail:   "A field value does not fit in its bit width, or a string exceeds its maximum length.",
	},
	"W005": {
		Category: CategoryCodec,
		Message:  "Unknown message type",
		Detail:   "The message type byte or name does not name any known message.",
	},
	"W006": {
		Category: CategoryCodec,
		Message:  "Too many elements",
		Detail:   "A list field holds more elements than its count prefix allows.",
	},

	// Packet errors (W020-W039)

	"W020": {
		Category: CategoryPacket,
		Message:  "Protocol version mismatch",
		Detail:   "The packet header carries a protocol version this codec was not configured for.",
	},
	"W021": {
		Category: CategoryPacket,
		Message:  "Packet too large",
		Detail:   "The packet payload exceeds the configured maximum size.",
	},
	"W022": {
		Category: CategoryPacket,
		Message:  "Truncated packet",
		Detail:   "The packet is shorter than its header claims.",
	},
	"W023": {
		Category: CategoryPacket,
		Message:  "Invalid packet flags",
		Detail:   "The packet header sets flag bits this codec does not understand.",
	},
	"W024": {
		Category: CategoryPacket,
		Message:  "Trailing data after payload",
		Detail:   "The packet carries more bytes than its header claims.",
	},

	// Transport errors (W040-W059)

	"W040": {
		Category: CategoryTransport,
		Message:  "Connection failed",
		Detail:   "The WebSocket connection could not be established.",
	},
	"W041": {
		Category: CategoryTransport,
		Message:  "Connection closed",
		Detail:   "The peer closed the connection or it timed out.",
	},
	"W042": {
		Category: CategoryTransport,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},

	// Config errors (W060-W079)

	"W060": {
		Category: CategoryConfig,
		Message:  "Config file not found",
		Detail:   "No gamewire.json was found at the given path.",
	},
	"W061": {
		Category: CategoryConfig,
		Message:  "Invalid config file",
		Detail:   "The config file is not valid JSON.",
	},
	"W062": {
		Category: CategoryConfig,
		Message:  "Invalid config value",
		Detail:   "A config field holds a value outside its allowed range.",
	},
	"W063": {
		Category: CategoryConfig,
		Message:  "Invalid type definitions",
		Detail:   "The game type definition file could not be parsed or names a type twice.",
	},

	// Capture errors (W080-W099)

	"W080": {
		Category: CategoryCapture,
		Message:  "Not a capture file",
		Detail:   "The file does not start with a capture header or uses an unsupported format version.",
	},
	"W081": {
		Category: CategoryCapture,
		Message:  "Capture not found",
		Detail:   "No capture is stored under the given key.",
	},
	"W082": {
		Category: CategoryCapture,
		Message:  "Capture storage failed",
		Detail:   "Reading from or writing to the capture store failed.",
	},
	"W083": {
		Category: CategoryCapture,
		Message:  "Corrupt capture record",
		Detail:   "A capture record is truncated or carries an invalid direction.",
	},

	// CLI errors (W100-W119)

	"W100": {
		Category: CategoryCLI,
		Message:  "Invalid input",
		Detail:   "The command input could not be parsed.",
	},
	"W101": {
		Category: CategoryCLI,
		Message:  "Internal error",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
