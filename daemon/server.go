// Copyright (c) 2025 BVK Chaitanya

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bvk/hashbid/ctxutil"
	"github.com/google/uuid"
)

// Server is a http server with a replaceable set of handlers.
type Server struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	wg     sync.WaitGroup

	addr *net.TCPAddr

	server *http.Server
	mux    atomic.Pointer[http.ServeMux]

	mutex      sync.Mutex
	handlerMap map[string]http.Handler
}

// StartServer starts a http server on the tcp address and waits till it
// responds to requests. Port number in the address is updated when it is
// zero.
func StartServer(ctx context.Context, addr *net.TCPAddr) (_ *Server, status error) {
	sctx, cancel := context.WithCancelCause(context.Background())
	defer func() {
		if status != nil {
			cancel(status)
		}
	}()

	s := &Server{
		ctx:        sctx,
		cancel:     cancel,
		addr:       addr,
		handlerMap: make(map[string]http.Handler),
	}
	s.updateHandlerMux()

	if err := s.start(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Addr returns the listening address.
func (s *Server) Addr() *net.TCPAddr {
	return s.addr
}

func (s *Server) Close() error {
	s.cancel(os.ErrClosed)
	if s.server != nil {
		_ = s.server.Close()
	}
	s.wg.Wait()
	return nil
}

func (s *Server) start(ctx context.Context) (status error) {
	l, err := net.Listen("tcp", s.addr.String())
	if err != nil {
		return err
	}
	defer func() {
		if status != nil {
			l.Close()
		}
	}()

	if s.addr.Port == 0 {
		laddr, ok := l.Addr().(*net.TCPAddr)
		if !ok {
			return fmt.Errorf("created listener addr is not *net.TCPAddr type")
		}
		s.addr.Port = laddr.Port
	}

	testPath := "/" + uuid.New().String()
	s.AddHandler(testPath, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer s.RemoveHandler(testPath)

	server := &http.Server{
		Handler: s,
		BaseContext: func(net.Listener) context.Context {
			return s.ctx
		},
	}
	defer func() {
		if status != nil {
			server.Close()
		}
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", "addr", s.addr, "err", err)
		}
	}()

	c := http.Client{Timeout: time.Second}
	u := url.URL{
		Scheme: "http",
		Host:   l.Addr().String(),
		Path:   testPath,
	}
	check := func() error {
		resp, err := c.Get(u.String())
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("readiness check returned http status %d", resp.StatusCode)
		}
		return nil
	}
	if err := ctxutil.RetryTimeout(ctx, 100*time.Millisecond, 10*time.Second, check); err != nil {
		return fmt.Errorf("http server at %s is not ready: %w", s.addr, err)
	}

	s.server = server
	return nil
}

func (s *Server) AddHandler(pattern string, handler http.Handler) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.handlerMap[pattern] = handler
	s.updateHandlerMux()
}

func (s *Server) RemoveHandler(pattern string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.handlerMap[pattern]; !ok {
		return false
	}
	delete(s.handlerMap, pattern)
	s.updateHandlerMux()
	return true
}

func (s *Server) updateHandlerMux() {
	m := http.NewServeMux()
	for k, v := range s.handlerMap {
		m.Handle(k, v)
	}
	s.mux.Store(m)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.Load().ServeHTTP(w, r)
}
