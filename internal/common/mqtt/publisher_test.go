package mqtt

import (
	"errors"
	"sync"
	"testing"
	"time"

	"yoga-guide/internal/common/config"
	"yoga-guide/internal/common/logger"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *doneToken) Error() error { return t.err }

// fakeClient implements paho.Client in memory.
type fakeClient struct {
	mu         sync.Mutex
	connectErr error
	publishErr error
	published  []string
	qos        []byte
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() paho.Token    { return &doneToken{err: c.connectErr} }
func (c *fakeClient) Disconnect(uint)        {}
func (c *fakeClient) Publish(topic string, qos byte, _ bool, _ interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, topic)
	c.qos = append(c.qos, qos)
	return &doneToken{err: c.publishErr}
}
func (c *fakeClient) Subscribe(string, byte, paho.MessageHandler) paho.Token {
	return &doneToken{}
}
func (c *fakeClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &doneToken{}
}
func (c *fakeClient) Unsubscribe(...string) paho.Token        { return &doneToken{} }
func (c *fakeClient) AddRoute(string, paho.MessageHandler)    {}
func (c *fakeClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test", Topic: "yoga-guide/live/overlay", QoS: 1}
}

func TestPublisher_RequiresConnection(t *testing.T) {
	p := newWithClient(testConfig(), &fakeClient{}, logger.NewTestLogger(t))

	err := p.Publish("t", []byte("x"))
	assert.ErrorIs(t, err, ErrNotConnected)

	_, errs := p.Stats()
	assert.Equal(t, uint64(1), errs)
}

func TestPublisher_PublishCounts(t *testing.T) {
	client := &fakeClient{}
	p := newWithClient(testConfig(), client, logger.NewTestLogger(t))
	require.NoError(t, p.Connect())

	require.NoError(t, p.Publish("yoga-guide/live/overlay", []byte(`{}`)))
	require.NoError(t, p.Publish("yoga-guide/live/overlay", []byte(`{}`)))

	published, errs := p.Stats()
	assert.Equal(t, uint64(2), published["yoga-guide/live/overlay"])
	assert.Zero(t, errs)
	assert.Equal(t, []byte{1, 1}, client.qos)

	p.Close()
	assert.ErrorIs(t, p.Publish("yoga-guide/live/overlay", nil), ErrNotConnected)
}

func TestPublisher_Errors(t *testing.T) {
	p := newWithClient(testConfig(), &fakeClient{connectErr: errors.New("refused")}, logger.NewNoOpLogger())
	assert.ErrorContains(t, p.Connect(), "refused")

	p = newWithClient(testConfig(), &fakeClient{publishErr: errors.New("not authorized")}, logger.NewNoOpLogger())
	require.NoError(t, p.Connect())
	assert.ErrorContains(t, p.Publish("t", nil), "not authorized")
}
