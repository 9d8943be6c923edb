// Package device mirrors ledger state to the physical coin sorter over its
// minimal HTTP protocol.
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"prosorter/domain/entities"
	"prosorter/domain/interfaces"

	"github.com/sirupsen/logrus"
)

// deviceIPKey is where the sorter registers its current address. The device
// is on DHCP, so the address is re-resolved on every call.
const deviceIPKey = "device:ip"

const defaultTimeout = 5 * time.Second

// Client talks to the sorting device. Pushes are best-effort: an
// unreachable or unregistered device is logged and skipped, never retried.
type Client struct {
	store      interfaces.KeyValueStore
	httpClient *http.Client
}

// NewClient creates a device client resolving addresses from the store.
func NewClient(store interfaces.KeyValueStore) *Client {
	return &Client{
		store:      store,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

var _ interfaces.DeviceClient = (*Client)(nil)

// resolve returns the device base URL, or ErrDeviceUnreachable when no
// address is registered.
func (c *Client) resolve(ctx context.Context) (string, error) {
	raw, err := c.store.Get(ctx, deviceIPKey)
	if err == entities.ErrKeyNotFound {
		return "", fmt.Errorf("%w: no address registered", entities.ErrDeviceUnreachable)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve device address: %w", err)
	}

	ip := strings.TrimSpace(string(raw))
	if ip == "" {
		return "", fmt.Errorf("%w: empty address registered", entities.ErrDeviceUnreachable)
	}
	return "http://" + ip, nil
}

// PushUpdate sends the committed snapshot to the device's /updateData
// endpoint. The payload keys match the device firmware's expectations.
func (c *Client) PushUpdate(ctx context.Context, snapshot entities.CoinSnapshot) error {
	base, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]int64{
		"Coins/Coin1":  snapshot.Coin1,
		"Coins/Coin2":  snapshot.Coin2,
		"Coins/Coin5":  snapshot.Coin5,
		"Coins/Coin10": snapshot.Coin10,
		"Coins/Amount": snapshot.TotalAmount,
	})
	if err != nil {
		return fmt.Errorf("failed to encode device payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/updateData", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build device request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: device returned status %d", entities.ErrDeviceUnreachable, resp.StatusCode)
	}

	logrus.WithField("total", snapshot.TotalAmount).Debug("pushed coin update to device")
	return nil
}

// Enroll starts fingerprint enrollment on the device. Unlike PushUpdate
// this is not fire-and-forget: the caller needs to know whether the device
// accepted the enrollment.
func (c *Client) Enroll(ctx context.Context, fingerID int64) error {
	base, err := c.resolve(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("fingerID", strconv.FormatInt(fingerID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/enroll", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build enroll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrDeviceUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("device rejected enrollment of finger %d: status %d", fingerID, resp.StatusCode)
	}
	return nil
}
