//nolint:testpackage // Testing internal validation helpers directly
package fetch

import (
	"net"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https URL", url: "https://example.com/article", wantErr: false},
		{name: "http URL", url: "http://example.com/", wantErr: false},
		{name: "ftp scheme", url: "ftp://example.com/file", wantErr: true},
		{name: "file scheme", url: "file:///etc/passwd", wantErr: true},
		{name: "no host", url: "https://", wantErr: true},
		{name: "localhost", url: "http://localhost:8080/admin", wantErr: true},
		{name: "localhost subdomain", url: "http://db.localhost/", wantErr: true},
		{name: "loopback literal", url: "http://127.0.0.1/", wantErr: true},
		{name: "ipv6 loopback", url: "http://[::1]/", wantErr: true},
		{name: "private 10.x", url: "http://10.1.2.3/secrets", wantErr: true},
		{name: "private 192.168.x", url: "http://192.168.1.1/", wantErr: true},
		{name: "link-local metadata", url: "http://169.254.169.254/latest/meta-data/", wantErr: true},
		{name: "cgnat", url: "http://100.64.0.1/", wantErr: true},
		{name: "dot-local domain", url: "http://printer.local/", wantErr: true},
		{name: "dot-internal domain", url: "http://vault.internal/", wantErr: true},
		{name: "public IP literal", url: "http://93.184.216.34/", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want bool
	}{
		{name: "loopback v4", ip: "127.0.0.1", want: true},
		{name: "loopback v6", ip: "::1", want: true},
		{name: "private 10", ip: "10.0.0.5", want: true},
		{name: "private 172.16", ip: "172.16.0.1", want: true},
		{name: "private 192.168", ip: "192.168.0.1", want: true},
		{name: "link-local v4", ip: "169.254.169.254", want: true},
		{name: "link-local v6", ip: "fe80::1", want: true},
		{name: "unique local v6", ip: "fd00::1", want: true},
		{name: "cgnat", ip: "100.64.10.10", want: true},
		{name: "unspecified", ip: "0.0.0.0", want: true},
		{name: "mapped loopback", ip: "::ffff:127.0.0.1", want: true},
		{name: "public v4", ip: "8.8.8.8", want: false},
		{name: "public v6", ip: "2606:4700::1111", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("failed to parse IP %q", tt.ip)
			}
			if got := IsPrivateIP(ip); got != tt.want {
				t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}
