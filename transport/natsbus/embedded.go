package natsbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

// Embedded is an in-process NATS server with one client connection,
// for single-binary deployments and tests.
type Embedded struct {
	Server *server.Server
	Conn   *nats.Conn
}

// StartEmbedded starts a server that listens on no port and connects to
// it in-process.
func StartEmbedded() (*Embedded, error) {
	ns, err := server.NewServer(&server.Options{DontListen: true, NoSigs: true})
	if err != nil {
		return nil, fmt.Errorf("natsbus: new server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(4 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("natsbus: embedded server not ready within 4s")
	}

	nc, err := nats.Connect("", nats.InProcessServer(ns))
	if err != nil {
		ns.Shutdown()
		return nil, fmt.Errorf("natsbus: connect in-process: %w", err)
	}
	return &Embedded{Server: ns, Conn: nc}, nil
}

// Connect dials a NATS server by URL.
func Connect(url, name string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("natsbus: connect %s: %w", url, err)
	}
	return nc, nil
}

// Shutdown drains the connection and stops the server.
func (e *Embedded) Shutdown() {
	if e.Conn != nil {
		if err := e.Conn.Drain(); err != nil {
			e.Conn.Close()
		}
	}
	if e.Server != nil {
		e.Server.Shutdown()
		e.Server.WaitForShutdown()
	}
}
