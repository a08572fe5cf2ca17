// Package download fetches remote audio for detection requests. Downloads
// are bounded in both size and time so a hostile URL cannot exhaust the
// service.
package download

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// MaxAudioBytes caps a single download at 50 MB.
	MaxAudioBytes = 50 * 1024 * 1024
	// FetchTimeout bounds the whole download, connect included.
	FetchTimeout = 30 * time.Second

	userAgent = "voice-detection/1.0"
)

// ErrTooLarge is returned when the remote audio exceeds MaxAudioBytes.
var ErrTooLarge = errors.New("remote audio exceeds size limit")

// ErrUnsafeURL is returned for URLs pointing at local or internal network
// resources. The service must never be usable as a proxy into its own
// network.
var ErrUnsafeURL = errors.New("url points to a local or internal resource")

var client = &http.Client{Timeout: FetchTimeout}

// FetchAudio downloads the audio behind a detection request URL. Only http
// and https schemes are accepted.
func FetchAudio(rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid audio URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}
	if err := checkHostSafety(parsed.Hostname()); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio URL returned status %d", resp.StatusCode)
	}
	if resp.ContentLength > MaxAudioBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	// Read one byte past the cap to distinguish at-limit from over-limit.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAudioBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read audio body: %w", err)
	}
	if len(data) > MaxAudioBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxAudioBytes)
	}
	if len(data) == 0 {
		return nil, errors.New("audio URL returned an empty body")
	}

	return data, nil
}

// checkHostSafety rejects hosts that are, or resolve to, loopback, private,
// link-local or unspecified addresses. Names are resolved up front so a DNS
// entry for an internal address fails the same way a literal one does.
func checkHostSafety(host string) error {
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrUnsafeURL)
	}

	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return fmt.Errorf("%w: %s", ErrUnsafeURL, host)
	}

	var ips []net.IP
	if ip := net.ParseIP(host); ip != nil {
		ips = []net.IP{ip}
	} else {
		resolved, err := net.LookupIP(host)
		if err != nil {
			return fmt.Errorf("failed to resolve host %s: %w", host, err)
		}
		ips = resolved
	}

	for _, ip := range ips {
		if !ipIsPublic(ip) {
			return fmt.Errorf("%w: %s resolves to %s", ErrUnsafeURL, host, ip)
		}
	}
	return nil
}

func ipIsPublic(ip net.IP) bool {
	return !(ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified())
}
