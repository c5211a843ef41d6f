package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motord/internal/client"
	"motord/internal/command"
	"motord/internal/logger"
	"motord/internal/motor"
	"motord/internal/pwm"
)

func referenceRegistry() *motor.Registry {
	return motor.NewRegistry(map[motor.ID]motor.ChannelPair{
		1: {Speed: 0, Direction: 1},
		2: {Speed: 2, Direction: 3},
		3: {Speed: 4, Direction: 5},
		4: {Speed: 6, Direction: 7},
	})
}

type failingDriver struct {
	*pwm.Sim
	err error
}

func (d failingDriver) SetDutyCycle(uint8, uint16) error {
	return d.err
}

type panickingActuator struct{}

func (panickingActuator) Apply(motor.State) error {
	panic("boom")
}

// startServer runs a server on a loopback port until the test ends.
func startServer(t *testing.T, cfg Conf, act Actuator) (*Server, string) {
	t.Helper()

	cfg.Listen = "127.0.0.1:0"
	srv := New(logger.Discard(), cfg, command.NewInterpreter(referenceRegistry()), act)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return srv, srv.Addr().String()
}

func send(t *testing.T, addr, cmd string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, err := client.Send(ctx, addr, cmd)
	require.NoError(t, err)
	return reply
}

func newSimActuator(sim *pwm.Sim) *motor.Actuator {
	return motor.NewActuator(logger.Discard(), sim, referenceRegistry(), motor.DefaultPolarity)
}

func TestServerSetMotor(t *testing.T) {
	sim := pwm.NewSim(16)
	_, addr := startServer(t, Conf{}, newSimActuator(sim))

	reply := send(t, addr, "2,forward,30000")

	assert.Equal(t, "OK: motor=2, dir=forward, speed=30000", reply)
	assert.Equal(t, []pwm.Write{
		{Channel: 3, Value: 0xFFFF},
		{Channel: 2, Value: 30000},
	}, sim.Writes())
}

func TestServerClampsSpeed(t *testing.T) {
	sim := pwm.NewSim(16)
	_, addr := startServer(t, Conf{}, newSimActuator(sim))

	reply := send(t, addr, "1,forward,999999")

	assert.Equal(t, "OK: motor=1, dir=forward, speed=65535", reply)
	assert.Equal(t, uint16(65535), sim.Value(0))
}

func TestServerRejectionsWriteNothing(t *testing.T) {
	sim := pwm.NewSim(16)
	_, addr := startServer(t, Conf{}, newSimActuator(sim))

	tests := map[string]string{
		"9,forward,1000": "ERROR: motor_id must be in {1,2,3,4}, got 9",
		"1,sideways,100": "ERROR: direction must be forward or backward",
		"1,forward,abc":  "ERROR: could not parse numbers",
		"PING":           "ERROR: invalid command format (expected motor_id,direction,speed or 'ping')",
	}
	for cmd, want := range tests {
		assert.Equal(t, want, send(t, addr, cmd), cmd)
	}
	assert.Empty(t, sim.Writes())
}

func TestServerPing(t *testing.T) {
	_, addr := startServer(t, Conf{}, newSimActuator(pwm.NewSim(16)))

	assert.Equal(t, "pong", send(t, addr, "ping\n"))
}

func TestServerEmptyRequestGetsNoReply(t *testing.T) {
	sim := pwm.NewSim(16)
	_, addr := startServer(t, Conf{}, newSimActuator(sim))

	assert.Equal(t, "", send(t, addr, ""))
	assert.Empty(t, sim.Writes())

	// The loop keeps serving afterwards.
	assert.Equal(t, "pong", send(t, addr, "ping"))
}

func TestServerHardwareFailureIsReported(t *testing.T) {
	driver := failingDriver{Sim: pwm.NewSim(16), err: errors.New("i2c nack")}
	act := motor.NewActuator(logger.Discard(), driver, referenceRegistry(), motor.DefaultPolarity)
	_, addr := startServer(t, Conf{}, act)

	reply := send(t, addr, "1,forward,10")

	assert.Equal(t, "ERROR: hardware write failed: motor 1 direction channel 1: i2c nack", reply)
	assert.Equal(t, "pong", send(t, addr, "ping"))
}

func TestServerSurvivesHandlerPanic(t *testing.T) {
	_, addr := startServer(t, Conf{}, panickingActuator{})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	reply, _ := client.Send(ctx, addr, "1,forward,10")
	assert.Equal(t, "", reply)

	assert.Equal(t, "pong", send(t, addr, "ping"))
}

func TestServerReadTimeoutDropsSilentClient(t *testing.T) {
	_, addr := startServer(t, Conf{ReadTimeout: 50 * time.Millisecond}, newSimActuator(pwm.NewSim(16)))

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 16)
	n, err := conn.Read(buf)
	assert.Equal(t, 0, n)
	assert.Error(t, err)

	assert.Equal(t, "pong", send(t, addr, "ping"))
}

func TestServerHandlesConnectionsOneAtATime(t *testing.T) {
	sim := pwm.NewSim(16)
	_, addr := startServer(t, Conf{}, newSimActuator(sim))

	// A connected but silent client holds the server.
	blocker, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	done := make(chan string, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		reply, _ := client.Send(ctx, addr, "3,backward,5")
		done <- reply
	}()

	select {
	case <-done:
		t.Fatal("second connection served while first was open")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, sim.Writes())

	_, err = blocker.Write([]byte("ping"))
	require.NoError(t, err)
	blocker.Close()

	select {
	case reply := <-done:
		assert.Equal(t, "OK: motor=3, dir=backward, speed=5", reply)
	case <-time.After(2 * time.Second):
		t.Fatal("second connection never served")
	}
}

func TestServerReadsOneBuffer(t *testing.T) {
	_, addr := startServer(t, Conf{ReadBuffer: 4}, newSimActuator(pwm.NewSim(16)))

	assert.Equal(t, "pong", send(t, addr, "ping"))
}

type brokenListener struct {
	net.Listener
}

func (brokenListener) Accept() (net.Conn, error) {
	return nil, errors.New("listener destroyed")
}

func TestServeAcceptFailureIsFatal(t *testing.T) {
	srv := New(logger.Discard(), Conf{Listen: "127.0.0.1:0"}, command.NewInterpreter(referenceRegistry()), newSimActuator(pwm.NewSim(16)))
	require.NoError(t, srv.Listen())
	srv.ln = brokenListener{Listener: srv.ln}

	err := srv.Serve(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener destroyed")
}

func TestServeRequiresListen(t *testing.T) {
	srv := New(logger.Discard(), Conf{}, command.NewInterpreter(referenceRegistry()), newSimActuator(pwm.NewSim(16)))

	assert.Error(t, srv.Serve(context.Background()))
}

func TestCloseReleasesPort(t *testing.T) {
	srv := New(logger.Discard(), Conf{Listen: "127.0.0.1:0"}, command.NewInterpreter(referenceRegistry()), newSimActuator(pwm.NewSim(16)))
	require.NoError(t, srv.Listen())
	addr := srv.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ctx) }()
	cancel()
	require.NoError(t, <-errCh)
	require.NoError(t, srv.Close())

	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	ln.Close()
}
