// Package internal contains the runtime implementation.
package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.barcircle.dev/web/core/log"
)

// Service is the interface for services that can be started and stopped.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type server struct {
	name string
	srv  *http.Server
	ln   net.Listener
}

// Runtime manages the lifecycle of services and servers.
type Runtime struct {
	logger          log.Logger
	services        []Service
	servers         []*server
	shutdownTimeout time.Duration
	wg              sync.WaitGroup
}

// NewRuntime creates a new runtime instance.
func NewRuntime(logger log.Logger, services []Service, shutdownTimeout time.Duration) *Runtime {
	return &Runtime{
		logger:          logger,
		services:        services,
		shutdownTimeout: shutdownTimeout,
	}
}

// AddServer registers a named server. Servers start in registration order.
func (r *Runtime) AddServer(name string, srv *http.Server) {
	r.servers = append(r.servers, &server{name: name, srv: srv})
}

// Addr returns the bound address of the named server once started.
func (r *Runtime) Addr(name string) string {
	for _, s := range r.servers {
		if s.name == name && s.ln != nil {
			return s.ln.Addr().String()
		}
	}
	return ""
}

// Start starts all services, then binds every server.
// A bind failure closes the listeners already opened and is returned.
func (r *Runtime) Start(ctx context.Context) error {
	r.logger.Info("starting runtime")

	var wg sync.WaitGroup
	errChan := make(chan error, len(r.services))

	for i, service := range r.services {
		wg.Add(1)
		go func(idx int, svc Service) {
			defer wg.Done()
			if err := svc.Start(ctx); err != nil {
				r.logger.Error(err, "service start failed", log.Int("index", idx))
				errChan <- fmt.Errorf("service %d start failed: %w", idx, err)
			}
		}(i, service)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}

	for i, s := range r.servers {
		ln, err := net.Listen("tcp", s.srv.Addr)
		if err != nil {
			for _, opened := range r.servers[:i] {
				opened.ln.Close()
				opened.ln = nil
			}
			return fmt.Errorf("%s server listen on %s: %w", s.name, s.srv.Addr, err)
		}
		s.ln = ln
	}

	for _, s := range r.servers {
		r.wg.Add(1)
		go func(s *server) {
			defer r.wg.Done()
			r.logger.Info("starting "+s.name+" server", log.Str("addr", s.ln.Addr().String()))
			if err := s.srv.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.Error(err, s.name+" server failed")
			}
		}(s)
	}

	r.logger.Info("runtime started successfully")
	return nil
}

// Stop gracefully shuts down servers first, then services.
func (r *Runtime) Stop(ctx context.Context) error {
	r.logger.Info("stopping runtime")

	shutdownCtx, cancel := context.WithTimeout(ctx, r.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, s := range r.servers {
		if s.ln == nil {
			continue
		}
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			r.logger.Error(err, s.name+" server shutdown failed")
			errs = append(errs, fmt.Errorf("%s server: %w", s.name, err))
		}
	}
	r.wg.Wait()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, service := range r.services {
		wg.Add(1)
		go func(idx int, svc Service) {
			defer wg.Done()
			if err := svc.Stop(shutdownCtx); err != nil {
				r.logger.Error(err, "service stop failed", log.Int("index", idx))
				mu.Lock()
				errs = append(errs, fmt.Errorf("service %d stop failed: %w", idx, err))
				mu.Unlock()
			}
		}(i, service)
	}
	wg.Wait()

	r.logger.Info("runtime stopped")
	return errors.Join(errs...)
}
