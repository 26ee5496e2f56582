// The sniffer command captures citadel traffic off the wire, reverses the
// stream obfuscation, and prints the decoded packets. Useful for debugging
// client behavior without enabling packet logging on the server.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"

	"github.com/aserdan/citadel/internal/core/wire"
)

var (
	device     = flag.String("d", "en0", "Device on which to listen for packets")
	serverPort = flag.Uint("port", 12000, "Port the login server is listening on")
	sendKey    = flag.Uint("send-key", wire.DefaultSendKey, "Server-to-client obfuscation key")
	receiveKey = flag.Uint("receive-key", wire.DefaultReceiveKey, "Client-to-server obfuscation key")
)

func main() {
	flag.Parse()

	handle, err := pcap.OpenLive(*device, math.MaxInt32, false, pcap.BlockForever)
	if err != nil {
		exit("error opening handle: %v", err)
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp and port %d", *serverPort)); err != nil {
		exit("error setting capture filter: %v", err)
	}

	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	s := &sniffer{
		Writer:     writer,
		ServerPort: uint16(*serverPort),
		SendKey:    byte(*sendKey),
		ReceiveKey: byte(*receiveKey),
	}

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	s.startReading(packetSource.Packets())
}

func exit(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
	os.Exit(1)
}
