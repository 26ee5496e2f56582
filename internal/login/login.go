// Package login implements the LOGIN server backend: it authenticates
// clients against the account store, enforces the one-session-per-account
// rule, and hands successfully authenticated clients the game server list.
package login

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/aserdan/citadel/internal/client"
	"github.com/aserdan/citadel/internal/core"
	"github.com/aserdan/citadel/internal/core/auth"
	"github.com/aserdan/citadel/internal/core/data"
	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/dispatch"
	"github.com/aserdan/citadel/internal/packets"
	"github.com/aserdan/citadel/internal/session"
)

// Profiles change rarely enough that a short cache keeps reconnect storms
// (client crashes, server list refreshes) off the database.
const profileCacheTTL = 5 * time.Minute

var noticeCaser = cases.Title(language.English)

// Server is the backend implementation for the login server.
type Server struct {
	Name     string
	Config   *core.Config
	Logger   *logrus.Logger
	Store    UserStore
	Registry *session.Registry

	profiles *cache.Cache
}

func NewServer(name string, cfg *core.Config, logger *logrus.Logger, store UserStore, registry *session.Registry) *Server {
	return &Server{
		Name:     name,
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Registry: registry,
		profiles: cache.New(profileCacheTTL, 10*time.Minute),
	}
}

func (s *Server) Identifier() string {
	return s.Name
}

func (s *Server) Init(ctx context.Context) error {
	return nil
}

func (s *Server) SetUpClient(c *client.Client) {
	c.Codec = client.NewCodecSession(
		byte(s.Config.LoginServer.SendKey),
		byte(s.Config.LoginServer.ReceiveKey),
	)
	c.Framer = &wire.Framer{MaxBuffer: s.Config.LoginServer.MaxBufferSize}
	c.Registry = s.Registry
}

// Handshake tells the client which key the server's stream is obfuscated
// with. It goes out in the clear; everything after it is encoded.
func (s *Server) Handshake(c *client.Client) error {
	return c.SendRaw(packets.NewHandshake(byte(s.Config.LoginServer.SendKey)))
}

func (s *Server) RegisterHandlers(d *dispatch.Dispatcher) {
	d.Register(packets.LoginType, s.handleLogin)
	d.Register(packets.PongType, s.handlePong)
	d.Register(packets.NicknameType, s.handleNickname)
}

func (s *Server) handlePong(_ context.Context, c *client.Client, _ *wire.Packet) error {
	c.PongReceived()
	return nil
}

// handleLogin runs the authentication state machine for one login request.
// Every branch sends exactly one outcome packet before any teardown.
func (s *Server) handleLogin(ctx context.Context, c *client.Client, pkt *wire.Packet) error {
	username := pkt.Field(packets.LoginFieldUsername)
	password := pkt.Field(packets.LoginFieldPassword)

	if !auth.ValidUsername(username) {
		return s.sendAndClose(c, packets.NewServerListError(packets.EnterIDError))
	}
	if !auth.ValidPassword(password) {
		return s.sendAndClose(c, packets.NewServerListError(packets.EnterPasswordError))
	}

	account, err := s.Store.FindAccountByUsername(ctx, username)
	if err != nil {
		s.Logger.Errorf("account lookup failed for %s: %v", username, err)
		_ = c.Send(packets.NewNotice(noticeCaser.String(err.Error())))
		return s.sendAndClose(c, packets.NewServerListError(packets.WrongUser))
	}
	if account == nil {
		return s.sendAndClose(c, packets.NewServerListError(packets.WrongUser))
	}

	if !auth.VerifyPassword(account, password) {
		return s.sendAndClose(c, packets.NewServerListError(packets.WrongPW))
	}

	rights, err := data.ParseRights(account.RightsByte)
	if err != nil {
		// Fail safe: an account we can't classify is treated as blocked.
		s.Logger.Errorf("account %s has unparsable rights value %d, treating as blocked",
			account.Username, account.RightsByte)
	}
	if rights == data.RightsBlocked {
		// A live session for the account outranks the ban notice.
		if s.Registry.IsAccountOnline(account.ID) {
			return s.sendAndClose(c, packets.NewServerListError(packets.AlreadyLoggedIn))
		}
		return s.sendAndClose(c, packets.NewServerListError(packets.Banned))
	}

	sess := &session.Session{
		AccountID:   account.ID,
		Username:    account.Username,
		DisplayName: account.DisplayName,
		Rights:      rights,
		Authorized:  true,
	}
	if !s.Registry.TryRegister(sess) {
		return s.sendAndClose(c, packets.NewServerListError(packets.AlreadyLoggedIn))
	}

	// Bind the session before anything that can block. Once bound, a
	// disconnect from any goroutine evicts it; without the re-check a
	// teardown racing the bind would strand the session in the registry and
	// lock the account out until restart.
	c.SetSession(sess)
	if c.Disconnected() {
		s.Registry.Remove(sess.ID)
		return nil
	}

	profile, err := s.loadProfile(ctx, account.ID)
	if err != nil {
		s.Logger.Errorf("profile load failed for account %d: %v", account.ID, err)
		return s.sendAndClose(c, packets.NewServerListError(packets.BadSynchronization))
	}

	c.OnPingTick = s.premiumRefresh(account.ID, profile)

	if sess.DisplayName == "" {
		if s.Config.LoginServer.NicknameChangeEnabled {
			// Non-terminal: the client picks a display name on this connection.
			return c.Send(packets.NewServerListError(packets.NewNickname))
		}
		return s.sendAndClose(c, packets.NewServerListError(packets.IllegalNickname))
	}

	s.Logger.Infof("[%s] authorized %s (account %d, session %d)",
		s.Name, sess.DisplayName, sess.AccountID, sess.ID)
	return s.sendAndClose(c, packets.NewServerListSuccess(sess.ID, sess.DisplayName, s.serverList()))
}

// handleNickname assigns a display name to a session that authenticated with
// an empty one. Invalid or taken names leave the connection open for another
// attempt; a successful assignment is terminal like any other login success.
func (s *Server) handleNickname(ctx context.Context, c *client.Client, pkt *wire.Packet) error {
	sess := c.CurrentSession()
	if sess == nil || !sess.Authorized {
		return s.sendAndClose(c, packets.NewServerListError(packets.BadSynchronization))
	}

	name := pkt.Field(packets.NicknameFieldName)
	if !auth.ValidUsername(name) {
		return c.Send(packets.NewServerListError(packets.IllegalNickname))
	}

	taken, err := s.Store.DisplayNameTaken(ctx, name)
	if err != nil {
		s.Logger.Errorf("display name lookup failed for account %d: %v", sess.AccountID, err)
		return s.sendAndClose(c, packets.NewServerListError(packets.BadSynchronization))
	}
	if taken {
		return c.Send(packets.NewServerListError(packets.IllegalNickname))
	}

	if err := s.Store.UpdateDisplayName(ctx, sess.AccountID, name); err != nil {
		s.Logger.Errorf("display name update failed for account %d: %v", sess.AccountID, err)
		return s.sendAndClose(c, packets.NewServerListError(packets.BadSynchronization))
	}

	sess.DisplayName = name
	s.Logger.Infof("[%s] account %d chose display name %s", s.Name, sess.AccountID, name)
	return s.sendAndClose(c, packets.NewServerListSuccess(sess.ID, name, s.serverList()))
}

// sendAndClose delivers the terminal outcome and tears the connection down.
func (s *Server) sendAndClose(c *client.Client, pkt *wire.Builder) error {
	err := c.Send(pkt)
	c.Disconnect()
	return err
}

// loadProfile fetches the account's game profile through a short-lived cache.
// Callers get their own copy: the per-tick premium hook mutates the profile,
// and the cached one is shared across connections.
func (s *Server) loadProfile(ctx context.Context, accountID uint64) (*data.Profile, error) {
	key := strconv.FormatUint(accountID, 10)
	if cached, found := s.profiles.Get(key); found {
		profile := *cached.(*data.Profile)
		return &profile, nil
	}

	profile, err := s.Store.FindProfileByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("no profile exists for account %d", accountID)
	}

	s.profiles.Set(key, profile, cache.DefaultExpiration)
	copied := *profile
	return &copied, nil
}

// premiumRefresh returns the per-tick hook that expires time-limited premium
// state while the connection is alive.
func (s *Server) premiumRefresh(accountID uint64, profile *data.Profile) func() {
	return func() {
		if profile.PremiumTier == data.PremiumNone {
			return
		}
		if profile.PremiumExpiry <= uint64(time.Now().Unix()) {
			profile.PremiumTier = data.PremiumNone
			s.Logger.Infof("premium subscription expired for account %d", accountID)
		}
	}
}

// serverList builds the advertised game server entries from config, falling
// back to the external IP for entries without an explicit address.
func (s *Server) serverList() []packets.ServerEntry {
	entries := make([]packets.ServerEntry, 0, len(s.Config.GameServers))
	for _, gs := range s.Config.GameServers {
		address := gs.Address
		if address == "" {
			address = s.Config.ExternalIP
		}
		entries = append(entries, packets.ServerEntry{
			Name:    gs.Name,
			Address: address,
			Port:    gs.Port,
		})
	}
	return entries
}
