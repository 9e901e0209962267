package client

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rivo/tview"
	log "github.com/sirupsen/logrus"

	"github.com/MatthewTully/keyforge/internal/crypto"
	"github.com/MatthewTully/keyforge/internal/encoding"
)

type ClientConfig struct {
	Name          string     `json:"name"`
	ServerAddress string     `json:"server-address"`
	Logger        *log.Entry `json:"-"`
}

type Client struct {
	cfg               *ClientConfig
	mu                sync.Mutex
	ActiveConn        net.Conn
	reader            *encoding.Reader
	aesKey            []byte
	ServerName        string
	ServerPubKey      crypto.PublicKey
	ServerFingerprint string
	LastKey           *encoding.KeyMaterial
	LastCommand       string
	userCmdArg        string
	output            io.Writer
	TUI               *tview.Application
	outputView        *tview.TextView
	keyView           *tview.TextView
	userInputBox      *tview.InputField
	tuiPages          *tview.Pages
}

func NewClient(cfg *ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = log.WithField("component", "client")
	}
	return &Client{
		cfg:    cfg,
		output: io.Discard,
	}
}

// SetOutput redirects command output, which otherwise goes to the TUI.
func (c *Client) SetOutput(w io.Writer) {
	c.output = w
}

func (c *Client) PushToOutputView(msg string) {
	fmt.Fprintln(c.output, msg)
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ActiveConn != nil
}
