package mqtt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/control"
	coremqtt "github.com/kilianp07/battsim/core/mqtt"
)

// helper to generate self-signed cert
func generateCert(t *testing.T) (certFile, keyFile, caFile string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("gen key: %v", err)
	}
	tmpl := x509.Certificate{SerialNumber: big.NewInt(1), Subject: pkix.Name{CommonName: "test"}, NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create cert: %v", err)
	}
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	dir := t.TempDir()
	certFile = dir + "/cert.pem"
	keyFile = dir + "/key.pem"
	caFile = dir + "/ca.pem"
	if err := os.WriteFile(certFile, certPEM, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0644); err != nil {
		t.Fatalf("write key: %v", err)
	}
	if err := os.WriteFile(caFile, certPEM, 0644); err != nil {
		t.Fatalf("write ca: %v", err)
	}
	return
}

func TestLoadTLSConfig(t *testing.T) {
	cert, key, ca := generateCert(t)
	cfg := Config{UseTLS: true, ClientCert: cert, ClientKey: key, CABundle: ca}
	tlsCfg, err := cfg.LoadTLSConfig()
	if err != nil {
		t.Fatalf("load tls: %v", err)
	}
	if len(tlsCfg.Certificates) == 0 {
		t.Fatalf("no certs loaded")
	}
	if tlsCfg.RootCAs == nil {
		t.Fatalf("no root CAs")
	}
}

func TestNewClientOptionsAuth(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", ClientID: "id", Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if opts.Username != "u" || opts.Password != "p" {
		t.Fatalf("auth not set")
	}
}

func withMockClient(t *testing.T, mc *mockClient) {
	t.Helper()
	newMQTTClient = func(o *paho.ClientOptions) pahoClient { mc.opts = o; return mc }
	t.Cleanup(func() { newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return paho.NewClient(opts) } })
}

func TestDefaultsAndClientID(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.TopicPrefix != "battsim" || cfg.MaxRetries != 3 || cfg.BackoffMS != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Enabled() {
		t.Fatalf("config without broker must be disabled")
	}
	id := cfg.clientID()
	if !strings.HasPrefix(id, "battsim-") || len(id) != len("battsim-")+8 {
		t.Fatalf("unexpected generated client id %q", id)
	}
}

func TestQoSSettings(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", QoS: map[string]byte{"event": 2, "command": 1}}
	cli, err := NewPahoClient(cfg, func(control.Request) error { return nil })
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if len(mc.subscribed) != 1 || mc.subscribed[0].topic != "battsim/command" || mc.subscribed[0].qos != 1 {
		t.Fatalf("command subscription not applied: %+v", mc.subscribed)
	}
	ev := battery.Event{Kind: battery.LevelChange, State: battery.FullState(), Time: time.Unix(0, 0)}
	if err := cli.PublishEvent(ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	last := mc.published[len(mc.published)-1]
	if last.topic != "battsim/event/levelchange" || last.qos != 2 || last.retained {
		t.Fatalf("event publish incorrect: %+v", last)
	}
}

func TestNoSubscriptionWithoutHandler(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	if _, err := NewPahoClient(Config{Broker: "tcp://localhost:1883"}, nil); err != nil {
		t.Fatalf("client: %v", err)
	}
	if len(mc.subscribed) != 0 {
		t.Fatalf("unexpected subscription: %+v", mc.subscribed)
	}
	if len(mc.published) != 1 || mc.published[0].topic != "battsim/status" || string(mc.published[0].payload) != "online" {
		t.Fatalf("online status not published: %+v", mc.published)
	}
}

func TestPublishStateRetained(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", TopicPrefix: "lab/b1"}, nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	st := battery.State{Level: 0.5, Charging: false, ChargingTime: battery.Unbounded, DischargingTime: 7500 * time.Millisecond}
	if err := cli.PublishState(st); err != nil {
		t.Fatalf("publish: %v", err)
	}
	last := mc.published[len(mc.published)-1]
	if last.topic != "lab/b1/state" || !last.retained {
		t.Fatalf("state publish incorrect: %+v", last)
	}
	want := `{"level":0.5,"charging":false,"charging_time_ms":null,"discharging_time_ms":7500}`
	if string(last.payload) != want {
		t.Fatalf("payload = %s, want %s", last.payload, want)
	}
}

func TestLWTConfigured(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", LWTTopic: "lwt", LWTPayload: "bye", LWTQoS: 1}
	cli, err := NewPahoClient(cfg, nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if !mc.opts.WillEnabled {
		t.Fatalf("will not enabled")
	}
	if mc.opts.WillTopic != "lwt" || string(mc.opts.WillPayload) != "bye" {
		t.Fatalf("will options incorrect")
	}
	cli.Disconnect()
	last := mc.published[len(mc.published)-1]
	if last.topic != "battsim/status" || string(last.payload) != "offline" {
		t.Fatalf("offline status not published on disconnect: %+v", last)
	}
}

func TestDefaultLWTIsStatusTopic(t *testing.T) {
	opts, err := NewClientOptions(Config{Broker: "tcp://localhost:1883", TopicPrefix: "b2"})
	if err != nil {
		t.Fatalf("opts: %v", err)
	}
	if !opts.WillEnabled || opts.WillTopic != "b2/status" || string(opts.WillPayload) != "offline" || !opts.WillRetained {
		t.Fatalf("default will incorrect: %s %s", opts.WillTopic, opts.WillPayload)
	}
}

func TestRetryLogic(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cfg := Config{Broker: "tcp://localhost:1883", ClientID: "id", MaxRetries: 1, BackoffMS: 1}
	cli, err := NewPahoClient(cfg, nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	mc.published = nil
	mc.publishErrs = []error{fmt.Errorf("net fail"), nil}
	if err := cli.PublishState(battery.FullState()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(mc.published) != 2 {
		t.Fatalf("expected retries, got %d publishes", len(mc.published))
	}
}

func TestRetryExhausted(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883", MaxRetries: 1, BackoffMS: 1}, nil)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	mc.publishErrs = []error{fmt.Errorf("a"), fmt.Errorf("b")}
	err = cli.PublishState(battery.FullState())
	if !errors.Is(err, coremqtt.ErrPublishFailed) {
		t.Fatalf("expected ErrPublishFailed, got %v", err)
	}
}

func TestHandleCommand(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	var got []control.Request
	cli, err := NewPahoClient(Config{Broker: "tcp://localhost:1883"}, func(req control.Request) error {
		got = append(got, req)
		return nil
	})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	cli.handleCommand(nil, mockMessage{[]byte(`{"action":"discharge","target":0.2,"duration_ms":1000,"steps":4}`)})
	cli.handleCommand(nil, mockMessage{[]byte(`not json`)})
	cli.handleCommand(nil, mockMessage{[]byte(`{"target":1}`)})
	if len(got) != 1 {
		t.Fatalf("expected one decoded command, got %d", len(got))
	}
	req := got[0]
	if req.Action != control.ActionDischarge || *req.Target != 0.2 || *req.DurationMS != 1000 || *req.Steps != 4 {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestDecodeCommand(t *testing.T) {
	req, err := DecodeCommand([]byte(`{"action":"set_level","value":0.3}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Action != control.ActionSetLevel || string(req.Value) != "0.3" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if _, err := DecodeCommand([]byte(`{}`)); !errors.Is(err, coremqtt.ErrInvalidCommand) {
		t.Fatalf("expected ErrInvalidCommand, got %v", err)
	}
}

// mockClient implements pahoClient for tests
type mockClient struct {
	opts       *paho.ClientOptions
	subscribed []struct {
		topic string
		qos   byte
	}
	published   []publishedMessage
	publishErrs []error
}

func (m *mockClient) IsConnected() bool { return true }
func (m *mockClient) Connect() paho.Token {
	if m.opts != nil && m.opts.OnConnect != nil {
		m.opts.OnConnect(m)
	}
	return &dummyToken{}
}
func (m *mockClient) Disconnect(uint) {}
func (m *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	msg := publishedMessage{topic: topic, qos: qos, retained: retained}
	switch p := payload.(type) {
	case []byte:
		msg.payload = p
	case string:
		msg.payload = []byte(p)
	}
	m.published = append(m.published, msg)
	if len(m.publishErrs) > 0 {
		err := m.publishErrs[0]
		m.publishErrs = m.publishErrs[1:]
		return &dummyToken{err: err}
	}
	return &dummyToken{}
}
func (m *mockClient) Subscribe(topic string, qos byte, _ paho.MessageHandler) paho.Token {
	m.subscribed = append(m.subscribed, struct {
		topic string
		qos   byte
	}{topic, qos})
	return &dummyToken{}
}
func (m *mockClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &dummyToken{}
}
func (m *mockClient) Unsubscribe(...string) paho.Token        { return &dummyToken{} }
func (m *mockClient) AddRoute(string, paho.MessageHandler)    {}
func (m *mockClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }
func (m *mockClient) IsConnectionOpen() bool                  { return true }

type publishedMessage struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type dummyToken struct{ err error }

func (d dummyToken) Wait() bool                     { return true }
func (d dummyToken) WaitTimeout(time.Duration) bool { return true }
func (d dummyToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (d dummyToken) Error() error                   { return d.err }

type mockMessage struct{ p []byte }

func (m mockMessage) Duplicate() bool   { return false }
func (m mockMessage) Qos() byte         { return 0 }
func (m mockMessage) Retained() bool    { return false }
func (m mockMessage) Topic() string     { return "" }
func (m mockMessage) MessageID() uint16 { return 0 }
func (m mockMessage) Payload() []byte   { return m.p }
func (m mockMessage) Ack()              {}
