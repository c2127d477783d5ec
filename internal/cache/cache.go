// Package cache persists the last public IP address seen by the updater.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Sentinel is returned when there is no cached IP. It never equals a real
// address, so comparing it against a resolved IP always forces an update.
const Sentinel = "0"

// Store reads and writes the cached IP as the whole content of a single file.
type Store struct {
	fs   afero.Fs
	path string
	log  logr.Logger
}

// New creates a Store backed by the file at path on fsys.
func New(log logr.Logger, fsys afero.Fs, path string) *Store {
	return &Store{fs: fsys, path: path, log: log}
}

// Get returns the cached IP. A missing file yields Sentinel and no error.
// Any other read failure yields Sentinel together with the error.
func (s *Store) Get(ctx context.Context) (string, error) {
	_, span := otel.Tracer("entrydns-updater").Start(ctx, "cache.Get")
	defer span.End()
	span.SetAttributes(attribute.String("cache.file", s.path))

	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.V(1).Info("no cached IP", "path", s.path)
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return Sentinel, nil
	}
	if err != nil {
		span.RecordError(err)
		return Sentinel, fmt.Errorf("cache: reading %s: %w", s.path, err)
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	s.log.V(1).Info("read cached IP", "path", s.path, "ip", string(data))
	return string(data), nil
}

// Set overwrites the cache file with ip.
func (s *Store) Set(ctx context.Context, ip string) error {
	_, span := otel.Tracer("entrydns-updater").Start(ctx, "cache.Set")
	defer span.End()
	span.SetAttributes(attribute.String("cache.file", s.path))

	if err := afero.WriteFile(s.fs, s.path, []byte(ip), 0644); err != nil {
		span.RecordError(err)
		return fmt.Errorf("cache: writing %s: %w", s.path, err)
	}
	s.log.V(1).Info("cached IP", "path", s.path, "ip", ip)
	return nil
}
