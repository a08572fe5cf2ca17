package download

import (
	"errors"
	"net"
	"strings"
	"testing"
)

// Unsafe targets must be rejected before any request is issued; every case
// here fails fast on a literal address or a local name, no network needed.
func TestFetchAudioRejectsInternalHosts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		url  string
	}{
		{"ipv4 loopback", "http://127.0.0.1:9000/sample.wav"},
		{"loopback range", "http://127.8.8.8/sample.wav"},
		{"localhost name", "http://localhost/sample.wav"},
		{"localhost subdomain", "http://api.localhost/sample.wav"},
		{"unspecified", "http://0.0.0.0/sample.wav"},
		{"private 10/8", "http://10.0.0.1/sample.wav"},
		{"private 172.16/12", "http://172.16.5.4/sample.wav"},
		{"private 192.168/16", "http://192.168.1.10/sample.wav"},
		{"link local", "http://169.254.169.254/latest/meta-data"},
		{"ipv6 loopback", "http://[::1]/sample.wav"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := FetchAudio(tc.url)
			if !errors.Is(err, ErrUnsafeURL) {
				t.Fatalf("FetchAudio(%q) = %v, want ErrUnsafeURL", tc.url, err)
			}
		})
	}
}

func TestFetchAudioRejectsUnsupportedSchemes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"ftp://example.com/sample.wav",
		"file:///etc/passwd",
		"gopher://example.com/",
	} {
		_, err := FetchAudio(raw)
		if err == nil || !strings.Contains(err.Error(), "unsupported URL scheme") {
			t.Fatalf("FetchAudio(%q) = %v, want scheme rejection", raw, err)
		}
	}
}

func TestCheckHostSafetyRejectsEmptyHost(t *testing.T) {
	t.Parallel()

	if err := checkHostSafety(""); !errors.Is(err, ErrUnsafeURL) {
		t.Fatalf("checkHostSafety(\"\") = %v, want ErrUnsafeURL", err)
	}
}

func TestIPIsPublic(t *testing.T) {
	t.Parallel()

	cases := []struct {
		ip     string
		public bool
	}{
		{"127.0.0.1", false},
		{"10.1.2.3", false},
		{"172.31.0.1", false},
		{"192.168.0.1", false},
		{"169.254.1.1", false},
		{"0.0.0.0", false},
		{"::1", false},
		{"fe80::1", false},
		{"8.8.8.8", true},
		{"93.184.216.34", true},
		{"2606:4700::1111", true},
	}

	for _, tc := range cases {
		ip := net.ParseIP(tc.ip)
		if ip == nil {
			t.Fatalf("bad test address %q", tc.ip)
		}
		if got := ipIsPublic(ip); got != tc.public {
			t.Errorf("ipIsPublic(%s) = %v, want %v", tc.ip, got, tc.public)
		}
	}
}
