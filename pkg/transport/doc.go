// Package transport carries gamewire packets over WebSocket.
//
// Each WebSocket binary message is exactly one packet. A Server upgrades
// requests, then runs one read loop per connection, handing every decoded
// packet to a Handler. A packet that fails to decode ends the connection
// with a policy-violation close frame: the stream offers no way to skip a
// bad message and resynchronize.
//
// Example:
//
//	codec := packet.NewCodec()
//	srv := transport.NewServer(codec, transport.Echo)
//	http.ListenAndServe(":8080", transport.NewRouter(srv, codec.Types, transport.MetricsAt("/metrics", promhttp.Handler())))
//
//	conn, err := transport.Dial(ctx, "ws://localhost:8080/ws", codec, nil)
//	conn.Send(ctx, &msg.Join{Protocol: 1, Name: "ann"})
//	msgs, err := conn.Receive(ctx)
package transport
