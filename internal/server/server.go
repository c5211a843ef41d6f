package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/xid"

	"motord/internal/command"
	"motord/internal/logger"
	"motord/internal/motor"
)

// Interpreter parses one request.
type Interpreter interface {
	Interpret(raw string) (command.Command, error)
}

// Actuator applies a validated motor state to the hardware.
type Actuator interface {
	Apply(s motor.State) error
}

// Conf structure of the command server.
type Conf struct {
	Listen      string        // Listen - адрес host:port.
	ReadBuffer  int           // ReadBuffer - максимальный размер команды в байтах.
	ReadTimeout time.Duration // ReadTimeout - 0 ждать бесконечно.
}

// Server accepts one connection at a time, reads one request, writes one
// reply and closes the connection. Only one command is ever in flight, which
// is what keeps writes to the PWM peripheral from interleaving.
type Server struct {
	log    logger.Logger
	cfg    Conf
	interp Interpreter
	act    Actuator

	mu      sync.Mutex
	ln      net.Listener
	active  net.Conn
	closing bool
}

// New конструктор.
func New(log logger.Logger, cfg Conf, interp Interpreter, act Actuator) *Server {
	if cfg.ReadBuffer <= 0 {
		cfg.ReadBuffer = 1024
	}
	return &Server{
		log:    log,
		cfg:    cfg,
		interp: interp,
		act:    act,
	}
}

// Listen binds the command port. It is called once.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ln != nil {
		return errors.New("server already listening")
	}
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.ln = ln
	s.log.Module("server").Infof("Starting motor server on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve runs the accept loop until ctx is cancelled (returns nil) or the
// listener fails (returns the error). The listener is closed either way.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-done:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return nil
			}
			s.Close()
			return fmt.Errorf("accept: %w", err)
		}
		s.handle(conn)
	}
}

// Close releases the listener and drops the connection being served. It is
// safe to call more than once and from any goroutine.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing {
		return nil
	}
	s.closing = true
	if s.active != nil {
		s.active.Close()
	}
	if s.ln == nil {
		return nil
	}
	s.log.Module("server").Info("Shutting down server...")
	return s.ln.Close()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Server) setActive(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing && conn != nil {
		return false
	}
	s.active = conn
	return true
}

func (s *Server) handle(conn net.Conn) {
	log := s.log.Module("server").With(logger.Fields{"conn": xid.New().String(), "remote": conn.RemoteAddr().String()})

	defer conn.Close()
	if !s.setActive(conn) {
		return
	}
	defer s.setActive(nil)
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("connection handler panic: %v", r)
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			log.Warnf("set read deadline: %v", err)
		}
	}

	buf := make([]byte, s.cfg.ReadBuffer)
	n, err := conn.Read(buf)
	if n == 0 {
		if err != nil && !isEOF(err) {
			log.Warnf("read: %v", err)
		} else {
			log.Debug("empty request")
		}
		return
	}

	raw := string(buf[:n])
	reply := s.dispatch(log, raw)
	if _, err := conn.Write([]byte(reply)); err != nil {
		log.Warnf("write reply: %v", err)
		return
	}
	log.Debugf("%q -> %q", raw, reply)
}

// dispatch turns one request into its reply line.
func (s *Server) dispatch(log *logger.Log, raw string) string {
	cmd, err := s.interp.Interpret(raw)
	if err != nil {
		log.Infof("rejected %q: %v", raw, err)
		return command.Error(err)
	}

	switch c := cmd.(type) {
	case command.Ping:
		return command.Pong
	case command.SetMotor:
		if err := s.act.Apply(c.State()); err != nil {
			log.Errorf("hardware write failed: %v", err)
			return command.Error(fmt.Errorf("hardware write failed: %w", err))
		}
		return command.OK(c)
	default:
		log.Errorf("unhandled command %T", cmd)
		return command.Error(errors.New("unhandled command"))
	}
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
