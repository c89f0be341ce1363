package validation

import (
	"net"
	"strings"
	"testing"
)

func TestNewLinkValidator(t *testing.T) {
	v := NewLinkValidator()
	if v == nil {
		t.Fatal("NewLinkValidator returned nil")
	}

	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false for links")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false for links")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}
}

func TestNewEndpointValidator(t *testing.T) {
	v := NewEndpointValidator()
	if !v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be true for endpoints")
	}
	if !v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be true for endpoints")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewLinkValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{
			name:        "empty URL",
			input:       "",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:        "whitespace-only URL",
			input:       "   ",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:     "URL without protocol gets HTTPS",
			input:    "www.reuters.com/world",
			expected: "https://www.reuters.com/world",
		},
		{
			name:     "host and port without protocol",
			input:    "news.example.org:8080/story",
			expected: "https://news.example.org:8080/story",
		},
		{
			name:     "HTTP URL preserved",
			input:    "http://www.bbc.co.uk/news/1",
			expected: "http://www.bbc.co.uk/news/1",
		},
		{
			name:     "HTTPS URL with query preserved",
			input:    "https://www.theguardian.com/a?utm_source=x",
			expected: "https://www.theguardian.com/a?utm_source=x",
		},
		{
			name:        "URL too long",
			input:       "https://www.reuters.com/" + strings.Repeat("a", 3000),
			shouldError: true,
			errorMsg:    "URL too long",
		},
		{
			name:        "invalid characters",
			input:       "https://www.reuters.com/<script>alert(1)</script>",
			shouldError: true,
			errorMsg:    "invalid characters",
		},
		{
			name:        "ftp scheme rejected",
			input:       "ftp://files.reuters.com/a",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "file scheme rejected",
			input:       "file:///etc/passwd",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "javascript scheme rejected",
			input:       "javascript:alert(1)",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "localhost blocked",
			input:       "https://localhost/admin",
			shouldError: true,
			errorMsg:    "localhost URLs are not permitted",
		},
		{
			name:        "loopback blocked",
			input:       "http://127.0.0.1:8080/",
			shouldError: true,
			errorMsg:    "localhost URLs are not permitted",
		},
		{
			name:        "private IP blocked",
			input:       "https://192.168.1.1/router",
			shouldError: true,
			errorMsg:    "private IP addresses are not permitted",
		},
		{
			name:        "no hostname",
			input:       "https:///story",
			shouldError: true,
			errorMsg:    "URL must have a valid hostname",
		},
		{
			name:        "directory traversal in path",
			input:       "https://www.reuters.com/../../etc/passwd",
			shouldError: true,
			errorMsg:    "directory traversal patterns not allowed",
		},
		{
			name:        "javascript in query params",
			input:       "https://www.reuters.com/a?redirect=javascript:alert(1)",
			shouldError: true,
			errorMsg:    "suspicious query parameters",
		},
		{
			name:        "unroutable host",
			input:       "http://0.0.0.0/",
			shouldError: true,
			errorMsg:    "unroutable hostname",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for input %q", tt.input)
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
			}
			if tt.expected != "" && result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestValidateAndNormalizeEndpoint(t *testing.T) {
	v := NewEndpointValidator()

	tests := []struct {
		input    string
		expected string
	}{
		{"http://127.0.0.1:3000/v2", "http://127.0.0.1:3000/v2"},
		{"https://localhost:8080/v2", "https://localhost:8080/v2"},
		{"https://192.168.1.100/proxy", "https://192.168.1.100/proxy"},
		{"https://newsapi.org/v2", "https://newsapi.org/v2"},
		{"http://[::1]:9000/v2", "http://[::1]:9000/v2"},
	}

	for _, tt := range tests {
		result, err := v.ValidateAndNormalize(tt.input)
		if err != nil {
			t.Errorf("Unexpected error for %q: %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, result)
		}
	}
}

func TestHasScheme(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"https://a", true},
		{"mailto:someone", true},
		{"javascript:void(0)", true},
		{"news.test:8080/a", false},
		{"news.test/a", false},
		{":nothing", false},
		{"1abc:foo", false},
	}
	for _, tt := range tests {
		if got := hasScheme(tt.input); got != tt.want {
			t.Errorf("hasScheme(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		hostname string
		expected bool
	}{
		{"localhost", true},
		{"LOCALHOST", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"api.localhost", true},
		{"localhost.com", false},
		{"newsapi.org", false},
	}

	for _, tt := range tests {
		if got := isLocalhost(tt.hostname); got != tt.expected {
			t.Errorf("isLocalhost(%q) = %v, want %v", tt.hostname, got, tt.expected)
		}
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"127.0.0.5", true},
		{"8.8.8.8", false},
		{"fd00::1", true},
		{"fe80::1", true},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		ip := net.ParseIP(tt.ip)
		if ip == nil {
			t.Fatalf("invalid test IP %q", tt.ip)
		}
		if got := isPrivateIP(ip); got != tt.expected {
			t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
		}
	}
}
