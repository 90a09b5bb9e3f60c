// Package xtalk implements the XTALK framing engine and its two
// transaction disciplines.
//
// An Engine owns a Transport, a sequence counter, a default timeout and a
// table of per-op callbacks. Sync layers the request/reply rules on top of
// it: every reply is validated against the command that was sent (reply
// bit, op, minimum length, sequence number) and ACK statuses other than OK
// are reported as *protocol.ProtocolError. Raw sends caller-built frames
// and returns whatever the device answers.
//
// # Usage
//
//	s, err := xtalk.NewSync(iface, xtalk.WithTimeout(2*time.Second))
//	if err != nil {
//	    return err
//	}
//	if err := s.SetProtocol(myDialect); err != nil {
//	    return err
//	}
//	cmd, err := s.NewCommand(0x11, 0)
//	res, err := s.ProcessCommand(ctx, cmd, true)
//
// Engines are not pipelined: one transaction is in flight at a time and a
// mutex serialises concurrent callers.
package xtalk
