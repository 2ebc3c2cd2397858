// Package capture records gamewire packets to a compact file format and
// stores capture files locally or in S3.
//
// A transport connection with a Recorder attached appends every packet it
// sends or receives, timestamped and tagged with its direction. Capture
// files are replayed with Reader (or the gamewire replay command), which
// feeds each packet back through a packet.Codec.
//
// Example:
//
//	f, _ := os.Create("session.gwcp")
//	rec := capture.NewRecorder(f)
//	rec.Record(capture.Outbound, data)
//
//	store, _ := capture.NewDirStore("/var/lib/gamewire")
//	capture.Upload(ctx, store, "2024/session.gwcp", "session.gwcp")
package capture
