package ecs

import "github.com/rs/zerolog"

const (
	DefaultMaxEntities       = 1 << 20
	DefaultMaxComponentTypes = SignatureWidth
)

// Options holds the limits and collaborators of a Store.
type Options struct {
	// MaxEntities bounds the entity id counter. Ids are always below it.
	MaxEntities int
	// MaxComponentTypes bounds component type ids and cannot exceed SignatureWidth.
	MaxComponentTypes int
	Logger            zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Options)

func WithMaxEntities(n int) StoreOption {
	return func(o *Options) {
		o.MaxEntities = n
	}
}

func WithMaxComponentTypes(n int) StoreOption {
	return func(o *Options) {
		o.MaxComponentTypes = n
	}
}

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(o *Options) {
		o.Logger = logger
	}
}

func defaultOptions() Options {
	return Options{
		MaxEntities:       DefaultMaxEntities,
		MaxComponentTypes: DefaultMaxComponentTypes,
		Logger:            zerolog.Nop(),
	}
}

func (o *Options) normalize() {
	if o.MaxEntities <= 0 {
		o.MaxEntities = DefaultMaxEntities
	}
	if o.MaxComponentTypes <= 0 || o.MaxComponentTypes > SignatureWidth {
		o.MaxComponentTypes = SignatureWidth
	}
}
