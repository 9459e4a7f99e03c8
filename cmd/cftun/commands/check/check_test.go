package check

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommandRegistration(t *testing.T) {
	assert.NotNil(t, Command)
	assert.Equal(t, "check", Command.Name)
	assert.Equal(t, "<domain>", Command.ArgsUsage)
	assert.NotNil(t, Command.Action)
}

// startTestDNS serves the given handler on a loopback UDP port and returns
// the server address
func startTestDNS(t *testing.T, handler dns.HandlerFunc) string {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &dns.Server{PacketConn: pc, Handler: handler}
	go func() { _ = server.ActivateAndServe() }()
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestQueryCNAME(t *testing.T) {
	addr := startTestDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if r.Question[0].Qtype == dns.TypeCNAME {
			rr, err := dns.NewRR(r.Question[0].Name + " 300 IN CNAME abc123.cfargotunnel.com.")
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})

	client := &dns.Client{Timeout: 2 * time.Second}
	target, err := queryCNAME(context.Background(), client, addr, "api.example.com.")
	require.NoError(t, err)
	assert.Equal(t, "abc123.cfargotunnel.com.", target)
}

func TestQueryCNAMENoAnswer(t *testing.T) {
	addr := startTestDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Rcode = dns.RcodeNameError
		_ = w.WriteMsg(m)
	})

	client := &dns.Client{Timeout: 2 * time.Second}
	target, err := queryCNAME(context.Background(), client, addr, "missing.example.com.")
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestQueryA(t *testing.T) {
	addr := startTestDNS(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if r.Question[0].Qtype == dns.TypeA {
			rr, err := dns.NewRR(r.Question[0].Name + " 300 IN A 104.16.0.1")
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		_ = w.WriteMsg(m)
	})

	client := &dns.Client{Timeout: 2 * time.Second}
	addrs, err := queryA(context.Background(), client, addr, "api.example.com.")
	require.NoError(t, err)
	assert.Equal(t, []string{"104.16.0.1"}, addrs)
}
