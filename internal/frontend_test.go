package internal

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aserdan/citadel/internal/core"
	"github.com/aserdan/citadel/internal/core/auth"
	"github.com/aserdan/citadel/internal/core/data"
	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/dispatch"
	"github.com/aserdan/citadel/internal/login"
	"github.com/aserdan/citadel/internal/packets"
	"github.com/aserdan/citadel/internal/session"
)

// stubStore serves one hardcoded account so the full accept/handshake/login
// exchange can run against a real TCP socket.
type stubStore struct {
	account *data.Account
	profile *data.Profile
}

func (s *stubStore) FindAccountByUsername(_ context.Context, username string) (*data.Account, error) {
	if s.account != nil && s.account.Username == username {
		return s.account, nil
	}
	return nil, nil
}

func (s *stubStore) FindProfileByAccountID(_ context.Context, accountID uint64) (*data.Profile, error) {
	if s.profile != nil && s.profile.AccountID == accountID {
		return s.profile, nil
	}
	return nil, nil
}

func (s *stubStore) DisplayNameTaken(context.Context, string) (bool, error) { return false, nil }

func (s *stubStore) UpdateDisplayName(context.Context, uint64, string) error { return nil }

func testFrontendConfig() *core.Config {
	cfg := &core.Config{}
	cfg.LoginServer.SendKey = wire.DefaultSendKey
	cfg.LoginServer.ReceiveKey = wire.DefaultReceiveKey
	cfg.LoginServer.MaxBufferSize = 65536
	cfg.GameServers = []core.GameServerConfig{{Name: "Alpha", Address: "10.0.0.5", Port: 15000}}
	return cfg
}

func TestFrontendLoginExchange(t *testing.T) {
	cfg := testFrontendConfig()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := &stubStore{
		account: &data.Account{
			ID:           7,
			Username:     "player1",
			DisplayName:  "PlayerOne",
			Password:     auth.HashPassword("hunter2", "pepper"),
			PasswordSalt: "pepper",
			RightsByte:   byte(data.RightsNormal),
		},
		profile: &data.Profile{AccountID: 7, XP: 1200},
	}

	f := &frontend{
		Address:    "127.0.0.1:0",
		Backend:    login.NewServer("LOGIN", cfg, logger, store, session.NewRegistry()),
		Config:     cfg,
		Logger:     logger,
		Dispatcher: dispatch.New(logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.Backend.Init(ctx); err != nil {
		t.Fatalf("Init() returned an unexpected error: %v", err)
	}
	f.Backend.RegisterHandlers(f.Dispatcher)

	socket, err := f.createSocket()
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	go f.startBlockingLoop(ctx, socket)

	conn, err := net.Dial("tcp", socket.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial server: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	// The handshake arrives in the clear and carries the send key.
	reader := bufio.NewReader(conn)
	handshake, err := reader.ReadBytes(wire.Delimiter)
	if err != nil {
		t.Fatalf("failed to read handshake: %v", err)
	}
	if !bytes.Equal(handshake, []byte("1 211\n")) {
		t.Fatalf("handshake = %q, expected %q", handshake, "1 211\n")
	}

	// Everything after the handshake is obfuscated per direction.
	request := []byte("2 1022 player1 hunter2\n")
	(wire.Codec{Key: byte(cfg.LoginServer.ReceiveKey)}).Apply(request)
	if _, err := conn.Write(request); err != nil {
		t.Fatalf("failed to send login request: %v", err)
	}

	// The server replies with the outcome and closes the connection.
	response, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read login response: %v", err)
	}
	(wire.Codec{Key: byte(cfg.LoginServer.SendKey)}).Apply(response)

	frames := bytes.Split(bytes.TrimSuffix(response, []byte{wire.Delimiter}), []byte{wire.Delimiter})
	pkt, err := wire.Parse(frames[0])
	if err != nil {
		t.Fatalf("failed to parse response frame %q: %v", frames[0], err)
	}

	if pkt.ID() != packets.ServerListType {
		t.Fatalf("response packet id = %d, expected %d", pkt.ID(), packets.ServerListType)
	}
	if code, _ := pkt.Uint(1); packets.OutcomeCode(code) != packets.Success {
		t.Errorf("outcome = %v, expected Success", packets.OutcomeCode(code))
	}
	if got := pkt.Field(3); got != "PlayerOne" {
		t.Errorf("display name = %q, expected %q", got, "PlayerOne")
	}
}

// Cancelling the server context must tear down idle connections rather than
// waiting for them to send bytes or miss a ping.
func TestShutdownClosesIdleConnections(t *testing.T) {
	cfg := testFrontendConfig()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &frontend{
		Address:    "127.0.0.1:0",
		Backend:    login.NewServer("LOGIN", cfg, logger, &stubStore{}, session.NewRegistry()),
		Config:     cfg,
		Logger:     logger,
		Dispatcher: dispatch.New(logger),
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := f.Backend.Init(ctx); err != nil {
		t.Fatalf("Init() returned an unexpected error: %v", err)
	}
	f.Backend.RegisterHandlers(f.Dispatcher)

	socket, err := f.createSocket()
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	stopped := make(chan struct{})
	go func() {
		f.startBlockingLoop(ctx, socket)
		close(stopped)
	}()

	conn, err := net.Dial("tcp", socket.Addr().String())
	if err != nil {
		t.Fatalf("failed to dial server: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	// Wait for the handshake so we know the connection was accepted, then go
	// idle and shut the server down.
	reader := bufio.NewReader(conn)
	if _, err := reader.ReadBytes(wire.Delimiter); err != nil {
		t.Fatalf("failed to read handshake: %v", err)
	}
	cancel()

	// The server should close the socket without the client sending a byte.
	if _, err := io.ReadAll(reader); err != nil {
		t.Fatalf("expected a clean close from the server, got: %v", err)
	}

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not finish shutting down with an idle connection open")
	}
}
