// Utilities for parsing cURL commands copied from browser DevTools.
package shared

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	headerRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	cookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
	urlRegex    = regexp.MustCompile(`curl\s+'([^']+)'|curl\s+"([^"]+)"`)
)

// CurlHeaders represents parsed headers and cookies from a cURL command.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
	URL     string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(curlCmd string) (*CurlHeaders, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	matches := headerRegex.FindAllStringSubmatch(curlCmd, -1)
	for _, match := range matches {
		key, value, ok := splitHeader(firstGroup(match))
		if !ok {
			continue
		}
		if strings.ToLower(key) == "cookie" {
			if cookie == "" {
				cookie = value
			}
			continue
		}
		headers[key] = value
	}

	if cookieMatches := cookieRegex.FindStringSubmatch(curlCmd); len(cookieMatches) > 1 {
		cookie = firstGroup(cookieMatches)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	result := &CurlHeaders{Headers: headers, Cookie: cookie}
	if urlMatches := urlRegex.FindStringSubmatch(curlCmd); len(urlMatches) > 1 {
		result.URL = firstGroup(urlMatches)
	}

	return result, nil
}

func firstGroup(match []string) string {
	for _, g := range match[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

func splitHeader(line string) (string, string, bool) {
	parts := strings.SplitN(line, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// APIKey returns the "key" query parameter of the captured request URL, if any.
func (c *CurlHeaders) APIKey() string {
	if c.URL == "" {
		return ""
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return ""
	}
	return u.Query().Get("key")
}

// ClientVersion returns the captured x-youtube-client-version header, if any.
func (c *CurlHeaders) ClientVersion() string {
	for key, value := range c.Headers {
		if strings.EqualFold(key, "x-youtube-client-version") {
			return value
		}
	}
	return ""
}

// ToHeaderMap flattens headers and cookie into a single map suitable for replaying requests.
func (c *CurlHeaders) ToHeaderMap() map[string]string {
	out := make(map[string]string, len(c.Headers)+1)
	for key, value := range c.Headers {
		out[key] = value
	}
	if c.Cookie != "" {
		out["cookie"] = c.Cookie
	}
	return out
}

// WriteHeadersFile stores the flattened headers as JSON with owner-only permissions.
func (c *CurlHeaders) WriteHeadersFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := MarshalJSON(c.ToHeaderMap(), true)
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}
	return nil
}

// ReadHeadersFile loads a headers file written by [CurlHeaders.WriteHeadersFile].
func ReadHeadersFile(path string) (http.Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read headers file: %v", ErrMissingCredentials, err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to parse headers file: %v", ErrInvalidConfig, err)
	}

	header := make(http.Header, len(raw))
	for key, value := range raw {
		header.Set(key, value)
	}
	return header, nil
}
