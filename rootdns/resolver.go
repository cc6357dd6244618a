// Package rootdns publishes and resolves allowlist roots as DNS TXT records,
// so buyers can check a stage's committed root against one the collection
// owner controls out of band.
//
//	_nftstages.<domain>. TXT "nftstages-root=<hex>"
package rootdns

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	// DefaultUpstream is the recursive resolver used when none is configured.
	DefaultUpstream = "8.8.8.8:53"

	// DefaultTimeout bounds a single query.
	DefaultTimeout = 10 * time.Second

	edns0BufSize = 4096
)

// TXTResolver looks up TXT records.
type TXTResolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// DNSSECResolver queries an upstream recursive resolver with the DO bit set
// and accepts only answers carrying the AD flag.
type DNSSECResolver struct {
	Upstream string
	Timeout  time.Duration
	// Insecure skips the AD flag check. Only for local resolvers that do
	// not validate.
	Insecure bool
}

var _ TXTResolver = (*DNSSECResolver)(nil)

// NewDNSSECResolver returns a resolver for upstream, or DefaultUpstream if
// upstream is empty.
func NewDNSSECResolver(upstream string) *DNSSECResolver {
	if upstream == "" {
		upstream = DefaultUpstream
	}
	return &DNSSECResolver{Upstream: upstream, Timeout: DefaultTimeout}
}

// LookupTXT returns the TXT strings at name, joining split character strings.
func (r *DNSSECResolver) LookupTXT(ctx context.Context, name string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeTXT)
	msg.RecursionDesired = true
	msg.SetEdns0(edns0BufSize, true)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &dns.Client{Timeout: timeout}
	resp, _, err := client.ExchangeContext(ctx, msg, r.Upstream)
	if err != nil {
		return nil, fmt.Errorf("%w: TXT %s: %w", ErrLookupFailed, name, err)
	}
	if resp.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%w: TXT %s: rcode %s", ErrLookupFailed, name, dns.RcodeToString[resp.Rcode])
	}
	if !r.Insecure && !resp.AuthenticatedData {
		return nil, fmt.Errorf("%w: AD flag not set for TXT %s", ErrDNSSECValidationFailed, name)
	}

	var txts []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			txts = append(txts, strings.Join(txt.Txt, ""))
		}
	}
	if len(txts) == 0 {
		return nil, fmt.Errorf("%w: no TXT records for %s", ErrLookupFailed, name)
	}
	return txts, nil
}
