// Package mcp2210test provides transports for testing code that drives an
// MCP2210: Script replays canned responses and Simulator emulates the
// device's settings storage and SPI engine.
package mcp2210test

import (
	"errors"
	"sync"

	"github.com/moffa90/go-mcp2210/protocol"
)

// ErrScriptExhausted is returned by Script.Read when no responses are left.
var ErrScriptExhausted = errors.New("mcp2210test: no scripted response left")

// Response builds a response packet with the given header bytes and payload.
func Response(cmd, status, b2, b3 byte, payload []byte) protocol.Packet {
	var p protocol.Packet
	p[0], p[1], p[2], p[3] = cmd, status, b2, b3
	copy(p.Payload(), payload)
	return p
}

// Script is a transport that records every write and answers every read
// with the next queued response, regardless of what was written.
type Script struct {
	mu        sync.Mutex
	responses []protocol.Packet
	writes    []protocol.Packet
	readErr   error
	writeErr  error
	readSize  int
	closes    int
}

// NewScript returns a Script that replays the given responses in order.
func NewScript(responses ...protocol.Packet) *Script {
	return &Script{
		responses: responses,
		readSize:  protocol.PacketSize,
	}
}

// Add queues more responses.
func (s *Script) Add(responses ...protocol.Packet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
}

// Respond queues a response built with Response.
func (s *Script) Respond(cmd, status, b2, b3 byte, payload []byte) {
	s.Add(Response(cmd, status, b2, b3, payload))
}

// SetReadError makes every following Read fail with err.
func (s *Script) SetReadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

// SetWriteError makes every following Write fail with err.
func (s *Script) SetWriteError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err
}

// SetReadSize makes Read report n bytes, to simulate short reports.
func (s *Script) SetReadSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readSize = n
}

func (s *Script) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.writeErr != nil {
		return 0, s.writeErr
	}
	var pkt protocol.Packet
	copy(pkt[:], p)
	s.writes = append(s.writes, pkt)
	return len(p), nil
}

func (s *Script) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readErr != nil {
		return 0, s.readErr
	}
	if len(s.responses) == 0 {
		return 0, ErrScriptExhausted
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	copy(p, resp[:])
	return min(s.readSize, len(p)), nil
}

// Close counts calls so tests can check a handle is released exactly once.
func (s *Script) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Writes returns copies of the packets written so far.
func (s *Script) Writes() []protocol.Packet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Packet(nil), s.writes...)
}

// Remaining returns the number of responses not yet read.
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// Closes returns the number of Close calls.
func (s *Script) Closes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
