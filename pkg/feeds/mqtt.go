package feeds

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrNoTopic = errors.New("mqtt feed: no topic configured")

// MQTTFeed forwards record batches published on an MQTT topic.
type MQTTFeed struct {
	Name     string
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
	Handler  Handler

	// NewClient builds the client; tests replace it.
	NewClient func(*mqtt.ClientOptions) mqtt.Client
}

func (f *MQTTFeed) name() string {
	if f.Name != "" {
		return f.Name
	}
	return "mqtt"
}

func (f *MQTTFeed) options() *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(f.Broker)
	clientID := f.ClientID
	if clientID == "" {
		clientID = "arcmap"
	}
	opts.SetClientID(clientID)
	if f.Username != "" {
		opts.SetUsername(f.Username)
		opts.SetPassword(f.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(maxBackoff)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetOnConnectHandler(f.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[FEED-MQTT] Connection interrupted (%v), auto-reconnect will retry", err)
	})
	return opts
}

// Run connects and blocks until ctx is done, then disconnects.
func (f *MQTTFeed) Run(ctx context.Context) error {
	if f.Topic == "" {
		return ErrNoTopic
	}
	newClient := f.NewClient
	if newClient == nil {
		newClient = mqtt.NewClient
	}
	client := newClient(f.options())

	log.Printf("[FEED-MQTT] Connecting to %s", f.Broker)
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(250)
		return nil
	case <-token.Done():
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}

	<-ctx.Done()
	client.Disconnect(250)
	log.Printf("[FEED-MQTT] Disconnected from %s", f.Broker)
	return nil
}

func (f *MQTTFeed) onConnect(client mqtt.Client) {
	log.Printf("[FEED-MQTT] Connected, subscribing to %s", f.Topic)
	token := client.Subscribe(f.Topic, f.QoS, f.onMessage)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("[FEED-MQTT] Error subscribing to %s: %v", f.Topic, token.Error())
	}
}

func (f *MQTTFeed) onMessage(_ mqtt.Client, msg mqtt.Message) {
	records, err := DecodeBatch(msg.Payload())
	if err != nil {
		log.Printf("[FEED-MQTT] Skipping message on %s: %v", msg.Topic(), err)
		return
	}
	if len(records) > 0 && f.Handler != nil {
		f.Handler(f.name(), records)
	}
}
