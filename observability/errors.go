package observability

import "errors"

var (
	ErrNilConfig          = errors.New("observability: config is nil")
	ErrMissingServiceName = errors.New("observability: service.name is required when enabled")
	ErrInvalidSampleRate  = errors.New("observability: trace.samplerate must be within [0, 1]")
	ErrInvalidProtocol    = errors.New("observability: protocol must be http or grpc")

	// ErrInvalidEndpointFormat: grpc endpoints are host:port, http endpoints carry a scheme.
	ErrInvalidEndpointFormat = errors.New("observability: endpoint does not match protocol")
)
