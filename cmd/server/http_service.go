// NovaDom - New-Construction Real Estate Marketplace
// Copyright 2026 NovaDom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/novadom/novadom

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// httpService wraps an http.Server as a suture.Service, translating the
// blocking ListenAndServe pattern into a context-aware Serve.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func newHTTPService(server *http.Server, shutdownTimeout time.Duration) *httpService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &httpService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve implements suture.Service. Returns nil only on graceful
// shutdown; http.ErrServerClosed is expected then and swallowed.
func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown failed: %w", err)
		}
		<-errCh
		return ctx.Err()
	}
}

// String identifies the service in supervisor logs.
func (s *httpService) String() string {
	return "http-server"
}
