package session

import (
	"log"

	"classhub/pkg/interfaces"
	"classhub/pkg/types"
)

// Key identifies a client slot within a session. At most one connection per
// key may be attached at any time.
type Key struct {
	UserID   string
	Homework bool
}

// Client is one attached connection with its verified identity
// ARCHITECTURAL DISCOVERY: Identity fields are copied from the credential at
// admission and immutable afterwards - the transport never updates them
type Client struct {
	UserID      string
	DisplayName string
	Role        string
	Homework    bool

	conn interfaces.Connection
}

// NewClient binds a verified identity to a transport connection.
func NewClient(identity *interfaces.Identity, homework bool, conn interfaces.Connection) *Client {
	return &Client{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		Role:        identity.Role,
		Homework:    homework,
		conn:        conn,
	}
}

// Key returns the client's (userID, homework) slot.
func (c *Client) Key() Key {
	return Key{UserID: c.UserID, Homework: c.Homework}
}

// CloseTransport closes the underlying connection. Used when evicting a
// superseded connection and during handler teardown.
func (c *Client) CloseTransport() {
	if err := c.conn.Close(); err != nil {
		log.Printf("Failed to close connection for user %s: %v", c.UserID, err)
	}
}

// send delivers one outbound message to this client
// FUNCTIONAL DISCOVERY: Delivery failures are logged, never propagated - a
// slow or dead peer must not affect the sender's handler
func (c *Client) send(msgType string, payload interface{}) {
	if err := c.conn.WriteJSON(types.NewOutbound(msgType, payload)); err != nil {
		log.Printf("Failed to deliver %s to user %s: %v", msgType, c.UserID, err)
	}
}
