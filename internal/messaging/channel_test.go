package messaging

import (
	"encoding/json"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type postedMessage struct {
	data   string
	origin string
}

type fakeTarget struct {
	mu     sync.Mutex
	posted []postedMessage
}

func (t *fakeTarget) PostMessage(data string, origin string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.posted = append(t.posted, postedMessage{data: data, origin: origin})
	return nil
}

func (t *fakeTarget) messages() []postedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]postedMessage, len(t.posted))
	copy(out, t.posted)
	return out
}

type ChannelSuite struct {
	suite.Suite
	channel *Channel
	target  *fakeTarget
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelSuite))
}

func (s *ChannelSuite) SetupTest() {
	s.target = &fakeTarget{}
	s.channel = NewChannel(slog.Default())
	s.Require().NoError(s.channel.Bind(s.target))
}

func (s *ChannelSuite) encode(env Envelope) string {
	env.Channel = ChannelID
	raw, err := json.Marshal(env)
	s.Require().NoError(err)
	return string(raw)
}

func (s *ChannelSuite) TestBindNilTarget() {
	err := NewChannel(slog.Default()).Bind(nil)
	s.Error(err)
}

func (s *ChannelSuite) TestSendStampsChannelAndCorrelation() {
	s.channel.SetCorrelation("req-42")
	s.Require().NoError(s.channel.SendData(`{"token":"abc"}`))

	posted := s.target.messages()
	s.Require().Len(posted, 1)

	var env Envelope
	s.Require().NoError(json.Unmarshal([]byte(posted[0].data), &env))
	s.Equal(ChannelID, env.Channel)
	s.Equal(TypeData, env.Type)
	s.Equal("req-42", env.ID)
}

func (s *ChannelSuite) TestCorrelationSurvivesOutOfOrderTraffic() {
	var received []Envelope
	s.channel.OnReceive(func(env Envelope, origin string) {
		received = append(received, env)
	})

	s.channel.Receive(s.encode(Envelope{Type: TypeInit, ID: "first"}), "https://rp.example", nil)
	s.channel.SetCorrelation("first")
	s.channel.Receive(s.encode(Envelope{Type: TypeData, ID: "other"}), "https://rp.example", nil)

	s.Require().NoError(s.channel.SendData("reply"))
	var env Envelope
	s.Require().NoError(json.Unmarshal([]byte(s.target.messages()[0].data), &env))
	s.Equal("first", env.ID, "replies keep the init correlation id regardless of later traffic")
	s.Len(received, 2)
}

func (s *ChannelSuite) TestNoiseIsDroppedSilently() {
	called := false
	s.channel.OnReceive(func(Envelope, string) { called = true })

	s.channel.Receive("definitely not json", "https://elsewhere.example", nil)
	s.channel.Receive(`{"channel":"another-bus","type":"data","id":"1","data":""}`, "https://elsewhere.example", nil)

	s.False(called)
	s.Empty(s.target.messages())
}

func (s *ChannelSuite) TestOriginPinning() {
	var origins []string
	s.channel.OnReceive(func(env Envelope, origin string) {
		origins = append(origins, origin)
	})

	s.channel.Receive(s.encode(Envelope{Type: TypeInit, ID: "1"}), "https://rp.example", nil)
	s.channel.PinOrigin("https://rp.example")

	s.channel.Receive(s.encode(Envelope{Type: TypeData, ID: "2"}), "https://attacker.example", nil)
	s.channel.Receive(s.encode(Envelope{Type: TypeData, ID: "3"}), "https://rp.example", nil)

	s.Equal([]string{"https://rp.example", "https://rp.example"}, origins)

	// Replies after pinning must target the pinned origin only.
	s.Require().NoError(s.channel.SendData("ok"))
	posted := s.target.messages()
	s.Equal("https://rp.example", posted[len(posted)-1].origin)
}

func (s *ChannelSuite) TestPingEchoBypassesHandler() {
	called := false
	s.channel.OnReceive(func(Envelope, string) { called = true })

	raw := s.encode(Envelope{Type: TypePing, ID: "probe-1"})
	s.channel.Receive(raw, "https://rp.example", nil)

	s.False(called)
	posted := s.target.messages()
	s.Require().Len(posted, 1)
	s.JSONEq(raw, posted[0].data)
}

func (s *ChannelSuite) TestPingRebindsToSource() {
	probeSource := &fakeTarget{}
	raw := s.encode(Envelope{Type: TypePing, ID: "probe-2"})
	s.channel.Receive(raw, "https://rp.example", probeSource)

	s.Empty(s.target.messages())
	s.Require().Len(probeSource.messages(), 1)

	// Subsequent sends go to the rebound target.
	s.Require().NoError(s.channel.SendData("hello"))
	s.Len(probeSource.messages(), 2)
}
