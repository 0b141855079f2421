// Package client provides a Go SDK for a tboard board's admin HTTP API.
//
// It is a thin wrapper over net/http with typed methods for submitting
// work and reading back board state, plus a WebSocket client for
// real-time event streaming.
//
// # Basic Usage
//
//	c, err := client.New("http://localhost:8090")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	t, err := c.SubmitTask(ctx, client.SubmitTaskRequest{
//	    FuncName: "send_email",
//	    Args:     map[string]any{"to": "user@example.com"},
//	})
//
// # WebSocket Events
//
//	if err := c.ConnectWebSocket(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.CloseWebSocket()
//
//	for event := range c.Events() {
//	    fmt.Printf("Event: %s\n", event.Type)
//	}
//
// # Configuration
//
// The client supports functional options for configuration:
//
//	c, err := client.New("http://localhost:8090",
//	    client.WithAPIKey("your-api-key"),
//	    client.WithTimeout(30 * time.Second),
//	)
package client
