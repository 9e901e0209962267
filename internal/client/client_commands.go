package client

import (
	"fmt"
	"strings"
)

type userCommand struct {
	name        string
	description string
	callback    func(*Client)
}

func getUserCommands() map[string]userCommand {
	return map[string]userCommand{
		"\\connect": {
			name:        "\\connect",
			description: "Connect to a key server",
			callback:    connectToServer,
		},
		"\\disconnect": {
			name:        "\\disconnect",
			description: "Disconnect from the key server",
			callback:    disconnectFromServer,
		},
		"\\key": {
			name:        "\\key",
			description: "Request a keypair from the server",
			callback:    requestKey,
		},
		"\\encrypt": {
			name:        "\\encrypt",
			description: "Encrypt a number with the last keypair",
			callback:    encryptNumber,
		},
		"\\decrypt": {
			name:        "\\decrypt",
			description: "Decrypt a number with the last keypair",
			callback:    decryptNumber,
		},
		"\\exit": {
			name:        "\\exit",
			description: "Close the application",
			callback:    exitApplication,
		},
		"\\list-user-commands": {
			name:        "\\list-user-commands",
			description: "List available commands",
			callback:    listUserCommands,
		},
	}
}

func connectToServer(c *Client) {
	srvAddr := c.userCmdArg
	if srvAddr == "" {
		srvAddr = c.cfg.ServerAddress
	}
	if srvAddr == "" {
		c.PushToOutputView("Usage: \\connect <host:port>")
		return
	}
	c.PushToOutputView(fmt.Sprintf("Attempting to connect to %v", srvAddr))
	if err := c.Connect(srvAddr); err != nil {
		c.PushErrorToOutputView(err)
		return
	}
	c.hideHomePage()
	c.PushToOutputView(fmt.Sprintf("Successfully connected to %v (%v)", c.ServerName, srvAddr))
	c.PushToOutputView(fmt.Sprintf("Server fingerprint: %v", c.ServerFingerprint))
}

func disconnectFromServer(c *Client) {
	if !c.Connected() {
		c.PushToOutputView("No active connections")
		return
	}
	c.PushToOutputView(fmt.Sprintf("Disconnecting from %v", c.ServerName))
	if err := c.Disconnect(); err != nil {
		c.PushErrorToOutputView(err)
	}
	c.PushToOutputView("Successfully disconnected.")
	c.showHomePage()
}

func requestKey(c *Client) {
	if !c.Connected() {
		c.PushToOutputView("No active connections")
		return
	}
	km, err := c.RequestKey()
	if err != nil {
		c.PushErrorToOutputView(err)
		return
	}
	c.PushToOutputView(fmt.Sprintf("Received keypair %v", km.Fingerprint))
	c.showKey(km)
}

func encryptNumber(c *Client) {
	got, err := EncryptNumber(c.LastKey, c.userCmdArg)
	if err != nil {
		c.PushErrorToOutputView(err)
		return
	}
	c.PushToOutputView(fmt.Sprintf("encrypt(%v) = %v", c.userCmdArg, got))
}

func decryptNumber(c *Client) {
	got, err := DecryptNumber(c.LastKey, c.userCmdArg)
	if err != nil {
		c.PushErrorToOutputView(err)
		return
	}
	c.PushToOutputView(fmt.Sprintf("decrypt(%v) = %v", c.userCmdArg, got))
}

func exitApplication(c *Client) {
	if c.Connected() {
		c.PushToOutputView("Closing any active connections..")
		disconnectFromServer(c)
	}
	c.PushToOutputView("Closing application")
	if c.TUI != nil {
		c.TUI.Stop()
	}
}

func listUserCommands(c *Client) {
	if c.tuiPages != nil {
		c.tuiPages.ShowPage("user-commands")
		return
	}
	c.PushToOutputView(commandHelp())
}

func actionInput(c *Client, usrInput string) {
	usrCmdMap := getUserCommands()
	inputArgs := strings.Fields(usrInput)
	if len(inputArgs) == 0 {
		return
	}
	cmd := inputArgs[0]
	clientCmd, exists := usrCmdMap[cmd]
	if !exists {
		c.PushToOutputView(fmt.Sprintf("%s is not a valid user command. Use \\list-user-commands to see available user commands.", cmd))
		return
	}
	c.userCmdArg = strings.Join(inputArgs[1:], " ")
	clientCmd.callback(c)
}
