package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Start requests the daemon to start its event sources.
func (c *Client) Start() (*StartResponse, error) {
	var resp StartResponse
	if err := c.client.Call("Dupeguard.Start", StartRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop requests the daemon to stop its event sources.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Dupeguard.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Dupeguard.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordList returns all tracked records in registration order.
func (c *Client) RecordList() (*RecordListResponse, error) {
	var resp RecordListResponse
	if err := c.client.Call("Dupeguard.RecordList", RecordListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordRemove removes a single record by id.
func (c *Client) RecordRemove(id string) (*RecordRemoveResponse, error) {
	var resp RecordRemoveResponse
	if err := c.client.Call("Dupeguard.RecordRemove", RecordRemoveRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordClear empties the tracked collection.
func (c *Client) RecordClear() (*RecordClearResponse, error) {
	var resp RecordClearResponse
	if err := c.client.Call("Dupeguard.RecordClear", RecordClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordExport renders the tracked collection as CSV.
func (c *Client) RecordExport() (*RecordExportResponse, error) {
	var resp RecordExportResponse
	if err := c.client.Call("Dupeguard.RecordExport", RecordExportRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingList returns blocked duplicates awaiting a decision.
func (c *Client) PendingList() (*PendingListResponse, error) {
	var resp PendingListResponse
	if err := c.client.Call("Dupeguard.PendingList", PendingListRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PendingAllow executes proceed-anyway for a blocked item.
func (c *Client) PendingAllow(id string) (*PendingAllowResponse, error) {
	var resp PendingAllowResponse
	if err := c.client.Call("Dupeguard.PendingAllow", PendingAllowRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventCreated reports a new acquisition to the engine.
func (c *Client) EventCreated(req EventCreatedRequest) (*EventResponse, error) {
	var resp EventResponse
	if err := c.client.Call("Dupeguard.EventCreated", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventNameKnown reports the assigned name for an acquisition.
func (c *Client) EventNameKnown(id, name string) (*EventResponse, error) {
	var resp EventResponse
	if err := c.client.Call("Dupeguard.EventNameKnown", EventNameKnownRequest{ID: id, Name: name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventCompleted reports a finished acquisition.
func (c *Client) EventCompleted(id string) (*EventResponse, error) {
	var resp EventResponse
	if err := c.client.Call("Dupeguard.EventCompleted", EventCompletedRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.client.Call("Dupeguard.TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
