package main

import (
	"bufio"
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"

	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/packets"
)

var packetNames = map[uint16]string{
	packets.HandshakeType:  "Handshake",
	packets.LoginType:      "Login",
	packets.ServerListType: "ServerList",
	packets.PingType:       "Ping",
	packets.PongType:       "Pong",
	packets.NicknameType:   "Nickname",
	packets.NoticeType:     "Notice",
}

// stream tracks the reassembly state for one direction of one TCP connection.
// The obfuscation key is fixed per direction, so each stream just needs its
// own framer to handle frames split across TCP segments.
type stream struct {
	codec  wire.Codec
	framer *wire.Framer
}

type sniffer struct {
	Writer     *bufio.Writer
	ServerPort uint16
	SendKey    byte
	ReceiveKey byte

	streams map[string]*stream
}

func (s *sniffer) startReading(packetChan chan gopacket.Packet) {
	s.streams = make(map[string]*stream)

	for packet := range packetChan {
		transport := packet.TransportLayer()
		app := packet.ApplicationLayer()
		if transport == nil || app == nil || len(app.Payload()) == 0 {
			continue
		}

		flow := transport.TransportFlow()
		srcPort := binary.BigEndian.Uint16(flow.Src().Raw())

		serverPacket := srcPort == s.ServerPort
		s.handlePayload(flow.String(), serverPacket, app.Payload())
	}
}

func (s *sniffer) handlePayload(flowKey string, serverPacket bool, data []byte) {
	st, ok := s.streams[flowKey]
	if !ok {
		key := s.ReceiveKey
		if serverPacket {
			key = s.SendKey
		}
		st = &stream{codec: wire.Codec{Key: key}, framer: &wire.Framer{}}
		s.streams[flowKey] = st
	}

	decoded := make([]byte, len(data))
	copy(decoded, data)

	// The handshake is the one packet sent in the clear, and it's always the
	// first thing the server says on a new connection.
	if !serverPacket || st.framer.Pending() > 0 || !isHandshake(decoded) {
		st.codec.Apply(decoded)
	}

	frames, err := st.framer.Feed(decoded)
	if err != nil {
		fmt.Fprintf(s.Writer, "[%s] buffer overflow, dropping stream\n", flowKey)
		delete(s.streams, flowKey)
		return
	}

	direction := "C->S"
	if serverPacket {
		direction = "S->C"
	}

	for _, frame := range frames {
		pkt, err := wire.Parse(frame)
		if err != nil {
			fmt.Fprintf(s.Writer, "[%s %s] unparsable frame: %q\n", flowKey, direction, frame)
			continue
		}

		name, ok := packetNames[pkt.ID()]
		if !ok {
			name = "Unknown"
		}
		fmt.Fprintf(s.Writer, "[%s %s] %s %q\n", flowKey, direction, name, frame)
	}
	s.Writer.Flush()
}

// isHandshake reports whether the raw bytes look like an unobfuscated
// handshake packet.
func isHandshake(data []byte) bool {
	return len(data) > 1 && data[0] == '1' && data[1] == wire.FieldSeparator
}
