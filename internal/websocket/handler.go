package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers the connection for orgId and blocks until it closes.
func ServeWs(hub *Hub, c *websocket.Conn, orgId string) {
	client := &Client{Hub: hub, Conn: c, OrganizationId: orgId, Send: make(chan []byte, 256)}
	if !hub.Register(client) {
		_ = c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
