// Package errors provides the structured errors printed by the gamewire
// command.
//
// Every operator-facing failure maps to a registered code:
//
//	W001-W019  codec: bit stream and message errors
//	W020-W039  packet: framing and version errors
//	W040-W059  transport: WebSocket errors
//	W060-W079  config: gamewire.json and type definition errors
//	W080-W099  capture: capture files and stores
//	W100-W119  cli: command input errors
//
// Library packages return plain sentinel errors. The command converts them
// at the edge with FromWire:
//
//	if err := run(); err != nil {
//	    errors.PrintError(errors.FromWire(err))
//	}
//
// Config errors carry a Location and the surrounding file lines:
//
//	ERROR W061: Invalid config file
//
//	  gamewire.json:4:15
//
//	       2 │   "protocolVersion": 1,
//	       3 │   "listen": ":8080",
//	    →  4 │   "logLevel": info
//	         │               ^
package errors
