package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/battsim/core/battery"
	"github.com/kilianp07/battsim/core/control"
	coremqtt "github.com/kilianp07/battsim/core/mqtt"
	"github.com/kilianp07/battsim/infra/logger"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements coremqtt.Publisher using Eclipse Paho and forwards
// requests received on the command topic to a handler.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	topics Topics
	logger logger.Logger

	mu        sync.RWMutex
	onCommand coremqtt.CommandHandler
}

var _ coremqtt.Publisher = (*PahoClient)(nil)

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the broker. When onCommand is not nil the client
// subscribes to the command topic on every (re)connect.
func NewPahoClient(cfg Config, onCommand coremqtt.CommandHandler) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		cfg:       cfg,
		topics:    Topics{Prefix: cfg.TopicPrefix},
		logger:    log,
		onCommand: onCommand,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		c.Publish(pc.topics.Status(), cfg.qos("state"), true, statusOnline)
		if pc.handler() == nil {
			return
		}
		if token := c.Subscribe(pc.topics.Command(), cfg.qos("command"), pc.handleCommand); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config. Without an
// explicit last will the status topic is set to "offline".
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.clientID())
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	} else {
		opts.SetWill(Topics{Prefix: cfg.TopicPrefix}.Status(), statusOffline, cfg.qos("state"), true)
	}
	return opts, nil
}

// Topics returns the topics this client publishes and listens on.
func (p *PahoClient) Topics() Topics { return p.topics }

// SetCommandHandler replaces the command handler. It takes effect for the
// next message; subscription happens on connect.
func (p *PahoClient) SetCommandHandler(h coremqtt.CommandHandler) {
	p.mu.Lock()
	p.onCommand = h
	p.mu.Unlock()
}

func (p *PahoClient) handler() coremqtt.CommandHandler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.onCommand
}

// PublishState publishes the retained snapshot.
func (p *PahoClient) PublishState(st battery.State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return p.publish(p.topics.State(), p.cfg.qos("state"), true, payload)
}

// PublishEvent publishes ev on its kind topic.
func (p *PahoClient) PublishEvent(ev battery.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.publish(p.topics.Event(ev.Kind), p.cfg.qos("event"), false, payload)
}

func (p *PahoClient) publish(topic string, qos byte, retained bool, payload []byte) error {
	backoff := p.cfg.backoff()
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, retained, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d on %s failed: %v", attempt+1, topic, publishErr)
		if attempt < p.cfg.MaxRetries {
			time.Sleep(backoff * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("%w: %s: %v", coremqtt.ErrPublishFailed, topic, publishErr)
}

func (p *PahoClient) handleCommand(_ paho.Client, msg paho.Message) {
	h := p.handler()
	if h == nil {
		return
	}
	req, err := DecodeCommand(msg.Payload())
	if err != nil {
		p.logger.Errorf("failed to decode command: %v", err)
		return
	}
	if err := h(req); err != nil {
		p.logger.Warnf("command %s rejected: %v", req.Action, err)
		return
	}
	p.logger.Infof("command %s accepted", req.Action)
}

// DecodeCommand parses a command payload. An empty action is rejected.
func DecodeCommand(payload []byte) (control.Request, error) {
	var req control.Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return control.Request{}, fmt.Errorf("%w: %v", coremqtt.ErrInvalidCommand, err)
	}
	if req.Action == "" {
		return control.Request{}, fmt.Errorf("%w: missing action", coremqtt.ErrInvalidCommand)
	}
	return req, nil
}

// Disconnect publishes the offline status and closes the connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Publish(p.topics.Status(), p.cfg.qos("state"), true, statusOffline).Wait()
		p.cli.Disconnect(250)
	}
}
