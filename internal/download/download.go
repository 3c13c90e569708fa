// Package download fetches package archives and database files from a
// repository's configured server list, the external collaborator
// behind the RETRIEVE events (§6, §9).
package download

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/StarchLinux/pacman/internal/alpm"
)

// Client fetches files from a repository's mirror list, trying each
// server in order until one succeeds, matching pacman's own mirror
// failover behavior.
type Client struct {
	HTTP  *http.Client
	Event alpm.EventHandler
}

// NewClient returns a Client using http.DefaultClient.
func NewClient() *Client {
	return &Client{HTTP: http.DefaultClient}
}

// Fetch downloads name (relative to each server's base URL) from the
// first server in servers that responds successfully, writing it to
// destPath. destPath's directory is created if needed.
func (c *Client) Fetch(ctx context.Context, servers []string, name, destPath string) error {
	if len(servers) == 0 {
		return errors.New("no servers configured")
	}

	c.emit(alpm.Event{Type: alpm.EventRetrieveStart})
	defer c.emit(alpm.Event{Type: alpm.EventRetrieveDone})

	var lastErr error
	for _, server := range servers {
		url := strings.TrimRight(server, "/") + "/" + name
		if err := c.fetchOne(ctx, url, destPath); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return errors.Wrapf(lastErr, "fetching %s from %d server(s)", name, len(servers))
}

func (c *Client) fetchOne(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("%s: unexpected status %s", url, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}
	tmp := destPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				os.Remove(tmp)
				return err
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			out.Close()
			os.Remove(tmp)
			return readErr
		}
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, destPath)
}

func (c *Client) emit(e alpm.Event) {
	if c.Event != nil {
		c.Event(e)
	}
}
