package main

import (
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/MatthewTully/keyforge/internal/client"
	"github.com/MatthewTully/keyforge/internal/logger"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "keyforge-client.json", "Path to the client settings file")
	reconfigure := flag.Bool("reconfigure", false, "Ask for client settings even if the settings file exists")
	connect := flag.String("connect", os.Getenv("KEYFORGE_CLIENT_SERVER"), "Default key server for \\connect")
	logPath := flag.String("log-file", "keyforge-client.log", "File the client logs to")
	debug := flag.Bool("debug", false, "Debug mode toggle")
	flag.Parse()

	cfg, err := client.SetupClientConfig(*configPath, *reconfigure, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalln(err)
	}

	// the TUI owns the terminal, so logs go to a file
	logFile, err := os.OpenFile(*logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Fatalln(err)
	}
	defer logFile.Close()
	cfg.Logger = logger.Setup("keyforge-client", *debug, logFile)

	if *connect != "" {
		cfg.ServerAddress = *connect
	}

	c := client.NewClient(cfg)
	if err := client.StartTUI(c); err != nil {
		cfg.Logger.Fatal(err)
	}
}
