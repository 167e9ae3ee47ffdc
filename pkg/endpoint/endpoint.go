package endpoint

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	externalip "github.com/glendc/go-external-ip"
	"github.com/sirupsen/logrus"
)

const (
	Auto = "auto"

	defaultDiscoveryTimeout = 10 * time.Second
)

var (
	ErrEndpointRequired = errors.New("endpoint is required")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrDiscoveryFailed  = errors.New("failed to discover public ip")
)

// Discoverer returns the public address of this host.
type Discoverer interface {
	ExternalIP() (net.IP, error)
}

type Resolver struct {
	discoverer Discoverer
}

func NewResolver(discoveryTimeout time.Duration) *Resolver {
	if discoveryTimeout <= 0 {
		discoveryTimeout = defaultDiscoveryTimeout
	}

	consensus := externalip.DefaultConsensus(externalip.DefaultConsensusConfig().WithTimeout(discoveryTimeout), nil)
	if err := consensus.UseIPProtocol(4); err != nil {
		logrus.WithError(err).Warn("failed to restrict public ip discovery to ipv4")
	}

	return &Resolver{
		discoverer: consensus,
	}
}

// Resolve returns the host:port clients should dial. A literal value may omit
// the port, in which case listenPort is appended.
func (r *Resolver) Resolve(ctx context.Context, endpoint string, listenPort int) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", ErrEndpointRequired
	}

	if strings.EqualFold(endpoint, Auto) {
		ip, err := r.discover(ctx)
		if err != nil {
			return "", err
		}
		return net.JoinHostPort(ip.String(), strconv.Itoa(listenPort)), nil
	}

	return Normalize(endpoint, listenPort)
}

func (r *Resolver) discover(ctx context.Context) (net.IP, error) {
	type result struct {
		ip  net.IP
		err error
	}

	resultChan := make(chan result, 1)
	go func() {
		ip, err := r.discoverer.ExternalIP()
		resultChan <- result{ip: ip, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, ctx.Err())
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDiscoveryFailed, res.err)
		}
		if res.ip == nil {
			return nil, ErrDiscoveryFailed
		}
		return res.ip, nil
	}
}

func Normalize(endpoint string, listenPort int) (string, error) {
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = strings.Trim(endpoint, "[]")
		port = strconv.Itoa(listenPort)
	}

	if !govalidator.IsIP(host) && !govalidator.IsDNSName(host) {
		return "", fmt.Errorf("%w: invalid host %q", ErrInvalidEndpoint, host)
	}
	if !govalidator.IsPort(port) {
		return "", fmt.Errorf("%w: invalid port %q", ErrInvalidEndpoint, port)
	}

	return net.JoinHostPort(host, port), nil
}
