package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:    "single header with single quotes",
			curlCmd: `curl -H 'Authorization: Bearer token123' https://api.example.com`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token123",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:    "single header with double quotes",
			curlCmd: `curl -H "Authorization: Bearer token123" https://api.example.com`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token123",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:    "multiple headers",
			curlCmd: `curl -H 'Content-Type: application/json' -H 'Authorization: Bearer token' https://api.example.com`,
			wantHeaders: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer token",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:        "cookie in -b flag with single quotes",
			curlCmd:     `curl -b 'session=abc123' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
			wantErr:     false,
		},
		{
			name:        "cookie in -b flag with double quotes",
			curlCmd:     `curl -b "session=abc123" https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123",
			wantErr:     false,
		},
		{
			name:        "cookie in -H header",
			curlCmd:     `curl -H 'Cookie: session=abc123; token=xyz' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "session=abc123; token=xyz",
			wantErr:     false,
		},
		{
			name:    "cookie header is excluded from regular headers",
			curlCmd: `curl -H 'Cookie: session=abc123' -H 'Authorization: Bearer token' https://api.example.com`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token",
			},
			wantCookie: "session=abc123",
			wantErr:    false,
		},
		{
			name: "multiline curl with backslashes",
			curlCmd: `curl -H 'Authorization: Bearer token' \
-H 'Content-Type: application/json' \
https://api.example.com`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token",
				"Content-Type":  "application/json",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:    "headers with spaces around colon",
			curlCmd: `curl -H 'Authorization : Bearer token' https://api.example.com`,
			wantHeaders: map[string]string{
				"Authorization": "Bearer token",
			},
			wantCookie: "",
			wantErr:    false,
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://api.example.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
			wantErr:     false,
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://api.example.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
		{
			name: "complex real-world example",
			curlCmd: `curl 'https://www.youtube.com/youtubei/v1/browse?prettyPrint=false' \
  -H 'accept: */*' \
  -H 'accept-language: en-US,en;q=0.9' \
  -H 'authorization: SAPISIDHASH token_here' \
  -H 'content-type: application/json' \
  -H 'cookie: VISITOR_INFO=xyz; CONSENT=YES' \
  --data-raw '{"context":{}}'`,
			wantHeaders: map[string]string{
				"accept":          "*/*",
				"accept-language": "en-US,en;q=0.9",
				"authorization":   "SAPISIDHASH token_here",
				"content-type":    "application/json",
			},
			wantCookie: "VISITOR_INFO=xyz; CONSENT=YES",
			wantErr:    false,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Errorf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
				return
			}

			if tc.wantErr {
				return
			}

			if result == nil {
				t.Fatal("ParseCurlCommand() returned nil result")
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}

			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}

			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestParseCurlFile(t *testing.T) {
	t.Run("successful file parse", func(t *testing.T) {
		tmpDir := t.TempDir()
		curlFile := filepath.Join(tmpDir, "curl.sh")

		curlCmd := `curl -H 'Authorization: Bearer token123' -H 'Content-Type: application/json' https://api.example.com`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		result, err := ParseCurlFile(curlFile)
		if err != nil {
			t.Fatalf("ParseCurlFile() error = %v", err)
		}

		if len(result.Headers) != 2 {
			t.Errorf("ParseCurlFile() headers count = %v, want 2", len(result.Headers))
		}

		if result.Headers["Authorization"] != "Bearer token123" {
			t.Errorf("ParseCurlFile() Authorization = %v, want %v", result.Headers["Authorization"], "Bearer token123")
		}
	})

	t.Run("file does not exist", func(t *testing.T) {
		_, err := ParseCurlFile("/nonexistent/file.sh")
		if err == nil {
			t.Error("ParseCurlFile() expected error for nonexistent file")
		}
	})

	t.Run("file with no valid headers", func(t *testing.T) {
		tmpDir := t.TempDir()
		curlFile := filepath.Join(tmpDir, "invalid.sh")

		if err := os.WriteFile(curlFile, []byte("curl https://example.com"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		_, err := ParseCurlFile(curlFile)
		if err == nil {
			t.Error("ParseCurlFile() expected error for file with no headers")
		}
	})
}

func TestCurlHeaders(t *testing.T) {
	t.Run("APIKey and ClientVersion", func(t *testing.T) {
		result, err := ParseCurlCommand(`curl 'https://www.youtube.com/youtubei/v1/browse?prettyPrint=false&key=AIzaTest' \
  -H 'x-youtube-client-version: 2.20260101.00.00' \
  -H 'authorization: SAPISIDHASH abc'`)
		if err != nil {
			t.Fatalf("ParseCurlCommand() error = %v", err)
		}

		if got := result.APIKey(); got != "AIzaTest" {
			t.Errorf("APIKey() = %q, want %q", got, "AIzaTest")
		}
		if got := result.ClientVersion(); got != "2.20260101.00.00" {
			t.Errorf("ClientVersion() = %q", got)
		}
	})

	t.Run("APIKey without URL", func(t *testing.T) {
		c := &CurlHeaders{Headers: map[string]string{"a": "b"}}
		if c.APIKey() != "" {
			t.Error("expected empty api key")
		}
	})

	t.Run("ToHeaderMap includes cookie", func(t *testing.T) {
		c := &CurlHeaders{
			Headers: map[string]string{"Authorization": "Bearer token"},
			Cookie:  "session=abc123",
		}

		got := c.ToHeaderMap()
		if got["Authorization"] != "Bearer token" {
			t.Errorf("missing Authorization header")
		}
		if got["cookie"] != "session=abc123" {
			t.Errorf("missing cookie header")
		}
	})

	t.Run("ToHeaderMap empty cookie", func(t *testing.T) {
		c := &CurlHeaders{Headers: map[string]string{}}
		if _, ok := c.ToHeaderMap()["cookie"]; ok {
			t.Error("empty cookie should not be emitted")
		}
	})

	t.Run("WriteHeadersFile round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "headers.json")
		c := &CurlHeaders{
			Headers: map[string]string{"authorization": "SAPISIDHASH abc"},
			Cookie:  "SAPISID=xyz",
		}

		if err := c.WriteHeadersFile(path); err != nil {
			t.Fatalf("WriteHeadersFile() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("headers file should exist: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("expected 0600 permissions, got %v", info.Mode().Perm())
		}

		header, err := ReadHeadersFile(path)
		if err != nil {
			t.Fatalf("ReadHeadersFile() error = %v", err)
		}
		if header.Get("Authorization") != "SAPISIDHASH abc" {
			t.Errorf("unexpected authorization %q", header.Get("Authorization"))
		}
		if header.Get("Cookie") != "SAPISID=xyz" {
			t.Errorf("unexpected cookie %q", header.Get("Cookie"))
		}
	})

	t.Run("ReadHeadersFile missing", func(t *testing.T) {
		_, err := ReadHeadersFile(filepath.Join(t.TempDir(), "nope.json"))
		if !strings.Contains(err.Error(), ErrMissingCredentials.Error()) {
			t.Errorf("expected missing credentials error, got %v", err)
		}
	})

	t.Run("ReadHeadersFile invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "headers.json")
		if err := os.WriteFile(path, []byte("not json"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := ReadHeadersFile(path); err == nil {
			t.Error("expected error for invalid headers file")
		}
	})
}
