package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/agencyhub/internal/content"
)

const maxAttachSize = 25 << 20

type attachResult struct {
	AssetID   string `json:"asset_id"`
	AssetType string `json:"asset_type"`
	FileURL   string `json:"file_url"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
}

func (s *Server) attachFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var data []byte
	if strings.HasPrefix(rawURL, "data:") {
		data, err = decodeDataURI(rawURL)
	} else {
		data, err = fetchHTTP(ctx, rawURL)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(data) > maxAttachSize {
		return mcp.NewToolResultError(fmt.Sprintf("file too large: %d bytes (max %d)", len(data), maxAttachSize)), nil
	}

	filename := req.GetString("filename", "")
	if filename == "" {
		filename = filenameFromURL(rawURL, mimetype.Detect(data).Extension())
	}
	reg := content.FileRegistration{
		ClientID: clientID,
		Title:    req.GetString("title", ""),
		Filename: path.Base(filename),
	}
	if v := req.GetString("project_id", ""); v != "" {
		reg.ProjectID = &v
	}

	a, err := s.deps.Content.ImportFile(ctx, reg, bytes.NewReader(data))
	if err != nil {
		return toolError(err), nil
	}
	out, _ := json.Marshal(attachResult{
		AssetID:   a.ID,
		AssetType: string(a.AssetType),
		FileURL:   a.Body.File.URL,
		MimeType:  a.Body.File.MimeType,
		Size:      a.Body.File.Size,
	})
	return mcp.NewToolResultText(string(out)), nil
}

// decodeDataURI parses a data:[<mediatype>];base64,<data> URI.
func decodeDataURI(uri string) ([]byte, error) {
	meta, encoded, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("invalid data URI: missing comma separator")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
	}
	return data, nil
}

// fetchHTTP downloads a file from an http(s) URL. Every connection, including
// redirect hops, goes through guardedDialer, so internal addresses are refused
// after DNS resolution.
func fetchHTTP(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s (only http/https)", parsed.Scheme)
	}
	if err := checkBlockedHost(parsed.Hostname()); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			Proxy:               nil,
			DialContext:         guardedDialer().DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects (max 5)")
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return fmt.Errorf("unsupported redirect scheme: %s", req.URL.Scheme)
			}
			return checkBlockedHost(req.URL.Hostname())
		},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAttachSize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if len(data) > maxAttachSize {
		return nil, fmt.Errorf("file too large: exceeds %d bytes", maxAttachSize)
	}
	return data, nil
}

// allowLoopback is flipped by tests that download from httptest servers.
var allowLoopback = false

// guardedDialer checks the resolved address of every connection before it is
// made, which also covers redirects and DNS rebinding.
func guardedDialer() *net.Dialer {
	return &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			host, _, err := net.SplitHostPort(address)
			if err != nil {
				return fmt.Errorf("blocked address %q: %w", address, err)
			}
			ip := net.ParseIP(host)
			if ip == nil {
				return fmt.Errorf("blocked address %q: not an IP", address)
			}
			return checkIP(ip)
		},
	}
}

// checkBlockedHost rejects literal internal IPs and well-known metadata
// hostnames before any request is made. Names are checked again at dial time.
func checkBlockedHost(host string) error {
	switch strings.ToLower(strings.TrimSuffix(host, ".")) {
	case "metadata.google.internal", "metadata":
		return fmt.Errorf("blocked host: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		return checkIP(ip)
	}
	return nil
}

// checkIP rejects every address class that reaches the local host, the
// private network or a cloud metadata endpoint.
func checkIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		if allowLoopback {
			return nil
		}
		return fmt.Errorf("blocked host: loopback address %s", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("blocked host: unspecified address %s", ip)
	case ip.IsPrivate():
		return fmt.Errorf("blocked host: private address %s", ip)
	case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
		return fmt.Errorf("blocked host: link-local address %s", ip)
	case ip.IsMulticast(), ip.IsInterfaceLocalMulticast():
		return fmt.Errorf("blocked host: multicast address %s", ip)
	}
	return nil
}

// filenameFromURL takes the last path segment of the URL, falling back to a
// UUID with the detected extension.
func filenameFromURL(rawURL, fallbackExt string) string {
	if !strings.HasPrefix(rawURL, "data:") {
		if parsed, err := url.Parse(rawURL); err == nil {
			base := path.Base(parsed.Path)
			if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
				return base
			}
		}
	}
	if fallbackExt == "" {
		fallbackExt = ".bin"
	}
	return uuid.New().String() + fallbackExt
}
