package repository

import "github.com/okian/capperchat/pkg/logger"

type options struct {
	log logger.Logger
}

// Option configures loading.
type Option func(*options)

// WithLogger sets the logger used to report dropped records.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
